package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// Template is a message template addressed by slug.
type Template struct {
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Active  bool   `json:"active"`
}

// Attempt records one send. Attempts are never modified after creation.
type Attempt struct {
	ID                uuid.UUID `json:"id"`
	RecipientPhone    string    `json:"recipient_phone"`
	TemplateSlug      string    `json:"template_slug"`
	RenderedBody      string    `json:"rendered_body"`
	Provider          string    `json:"provider"`
	Success           bool      `json:"success"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Result is what callers see of a dispatch.
type Result struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Error             string `json:"error,omitempty"`
}

type (
	// TemplateStore returns active templates. Missing or inactive templates
	// must yield ErrTemplateNotFound.
	TemplateStore interface {
		GetActive(ctx context.Context, slug string) (Template, error)
	}

	// AttemptStore appends attempts.
	AttemptStore interface {
		Append(ctx context.Context, a Attempt) error
	}

	// ProviderConfigSource supplies the active provider configuration.
	// It returns ErrNoActiveProvider when none is configured.
	ProviderConfigSource interface {
		Active(ctx context.Context) (messaging.Config, error)
	}

	// ProviderResolver looks up a provider adapter by name.
	ProviderResolver interface {
		Get(name messaging.Name) (messaging.Provider, error)
	}

	// Recorder observes dispatch outcomes.
	Recorder interface {
		RecordDispatch(provider, template string, success bool, elapsed time.Duration)
	}
)

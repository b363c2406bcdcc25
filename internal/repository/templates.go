package repository

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/condokit/pkg/dispatch"
)

// Templates implements dispatch.TemplateStore.
type Templates struct {
	db DB
}

func NewTemplates(db DB) *Templates {
	return &Templates{db: db}
}

func (r *Templates) GetActive(ctx context.Context, slug string) (dispatch.Template, error) {
	var t dispatch.Template
	err := r.db.QueryRow(ctx,
		`SELECT slug, content, active FROM message_templates WHERE slug = $1 AND active`, slug,
	).Scan(&t.Slug, &t.Content, &t.Active)
	if err != nil {
		if isNoRows(err) {
			return dispatch.Template{}, dispatch.ErrTemplateNotFound
		}
		return dispatch.Template{}, fmt.Errorf("load template %q: %w", slug, err)
	}
	return t, nil
}

// Seed inserts t unless a template with the same slug exists. It reports
// whether a row was written.
func (r *Templates) Seed(ctx context.Context, t dispatch.Template) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO message_templates (slug, content, active) VALUES ($1, $2, $3) ON CONFLICT (slug) DO NOTHING`,
		t.Slug, t.Content, t.Active,
	)
	if err != nil {
		return false, fmt.Errorf("seed template %q: %w", t.Slug, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Attempts implements dispatch.AttemptStore. Rows are never updated.
type Attempts struct {
	db DB
}

func NewAttempts(db DB) *Attempts {
	return &Attempts{db: db}
}

const insertAttempt = `
	INSERT INTO dispatch_attempts
	    (id, recipient_phone, template_slug, rendered_body, provider, success, provider_message_id, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func (r *Attempts) Append(ctx context.Context, a dispatch.Attempt) error {
	_, err := r.db.Exec(ctx, insertAttempt,
		a.ID, a.RecipientPhone, a.TemplateSlug, a.RenderedBody, a.Provider, a.Success,
		nullString(a.ProviderMessageID), nullString(a.Error), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dispatch attempt: %w", err)
	}
	return nil
}

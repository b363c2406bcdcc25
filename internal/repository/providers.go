package repository

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/condokit/pkg/dispatch"
	"github.com/dmitrymomot/condokit/pkg/messaging"
)

// Providers reads the active messaging provider row; it implements
// dispatch.ProviderConfigSource.
type Providers struct {
	db DB
}

func NewProviders(db DB) *Providers {
	return &Providers{db: db}
}

const activeProvider = `
	SELECT provider, api_url, api_key, instance_id
	FROM messaging_providers
	WHERE active
	ORDER BY updated_at DESC
	LIMIT 1`

func (r *Providers) Active(ctx context.Context) (messaging.Config, error) {
	var (
		cfg  messaging.Config
		name string
	)
	err := r.db.QueryRow(ctx, activeProvider).Scan(&name, &cfg.APIURL, &cfg.APIKey, &cfg.InstanceID)
	if err != nil {
		if isNoRows(err) {
			return messaging.Config{}, dispatch.ErrNoActiveProvider
		}
		return messaging.Config{}, fmt.Errorf("load active provider: %w", err)
	}
	cfg.Provider = messaging.Name(name)
	return cfg, nil
}

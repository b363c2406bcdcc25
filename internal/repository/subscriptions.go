package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/lifecycle"
)

// Subscriptions implements lifecycle.Store.
type Subscriptions struct {
	db DB
}

func NewSubscriptions(db DB) *Subscriptions {
	return &Subscriptions{db: db}
}

const listActiveSubscriptions = `
	SELECT id, tenant_id, plan, active, is_trial, trial_ends_at,
	       current_period_start, current_period_end, usage_counters, updated_at
	FROM subscriptions
	WHERE active
	ORDER BY id`

func (r *Subscriptions) ListActive(ctx context.Context) ([]lifecycle.Subscription, error) {
	rows, err := r.db.Query(ctx, listActiveSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	var out []lifecycle.Subscription
	for rows.Next() {
		var (
			sub      lifecycle.Subscription
			counters []byte
		)
		if err := rows.Scan(
			&sub.ID, &sub.TenantID, &sub.PlanSlug, &sub.Active, &sub.IsTrial, &sub.TrialEndsAt,
			&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &counters, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if len(counters) > 0 {
			if err := json.Unmarshal(counters, &sub.UsageCounters); err != nil {
				return nil, fmt.Errorf("decode usage counters of %s: %w", sub.ID, err)
			}
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

const savePeriod = `
	UPDATE subscriptions
	SET is_trial = $2, current_period_start = $3, current_period_end = $4,
	    usage_counters = $5, updated_at = $6
	WHERE id = $1`

func (r *Subscriptions) SavePeriod(ctx context.Context, sub lifecycle.Subscription) error {
	counters := sub.UsageCounters
	if counters == nil {
		counters = map[string]int64{}
	}
	raw, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("encode usage counters: %w", err)
	}

	tag, err := r.db.Exec(ctx, savePeriod,
		sub.ID, sub.IsTrial, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, raw, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save subscription period: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrSubscriptionNotFound
	}
	return nil
}

// Tenants resolves owner contacts; it implements lifecycle.ContactResolver.
type Tenants struct {
	db DB
}

func NewTenants(db DB) *Tenants {
	return &Tenants{db: db}
}

const ownerContact = `
	SELECT owner_name, owner_phone, COALESCE(owner_email, '')
	FROM tenants
	WHERE id = $1`

func (r *Tenants) OwnerContact(ctx context.Context, tenantID uuid.UUID) (lifecycle.Contact, error) {
	var c lifecycle.Contact
	err := r.db.QueryRow(ctx, ownerContact, tenantID).Scan(&c.Name, &c.Phone, &c.Email)
	if err != nil {
		if isNoRows(err) {
			return lifecycle.Contact{}, lifecycle.ErrContactNotFound
		}
		return lifecycle.Contact{}, fmt.Errorf("load owner contact: %w", err)
	}
	return c, nil
}

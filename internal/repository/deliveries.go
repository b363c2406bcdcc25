package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/condokit/pkg/delivery"
	"github.com/dmitrymomot/condokit/pkg/pg"
)

// Deliveries implements delivery.Store.
type Deliveries struct {
	db DB
}

func NewDeliveries(db DB) *Deliveries {
	return &Deliveries{db: db}
}

const deliveryColumns = `provider_message_id, provider, sent_at, delivered_at, read_at, provider_status, updated_at`

func scanDelivery(row interface{ Scan(...any) error }) (delivery.Timestamps, error) {
	var ts delivery.Timestamps
	err := row.Scan(&ts.ProviderMessageID, &ts.Provider, &ts.SentAt, &ts.DeliveredAt, &ts.ReadAt, &ts.ProviderStatus, &ts.UpdatedAt)
	return ts, err
}

func (r *Deliveries) Create(ctx context.Context, ts delivery.Timestamps) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO delivery_statuses (`+deliveryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider_message_id) DO NOTHING`,
		ts.ProviderMessageID, ts.Provider, ts.SentAt, ts.DeliveredAt, ts.ReadAt, ts.ProviderStatus, ts.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return delivery.ErrAlreadyExists
		}
		return fmt.Errorf("insert delivery status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return delivery.ErrAlreadyExists
	}
	return nil
}

func (r *Deliveries) GetByMessageID(ctx context.Context, id string) (delivery.Timestamps, error) {
	ts, err := scanDelivery(r.db.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM delivery_statuses WHERE provider_message_id = $1`, id,
	))
	if err != nil {
		if isNoRows(err) {
			return delivery.Timestamps{}, delivery.ErrNotFound
		}
		return delivery.Timestamps{}, fmt.Errorf("get delivery status: %w", err)
	}
	return ts, nil
}

func (r *Deliveries) Update(ctx context.Context, ts delivery.Timestamps) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE delivery_statuses
		SET delivered_at = $2, read_at = $3, provider_status = $4, updated_at = $5
		WHERE provider_message_id = $1`,
		ts.ProviderMessageID, ts.DeliveredAt, ts.ReadAt, ts.ProviderStatus, ts.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return delivery.ErrNotFound
	}
	return nil
}

func (r *Deliveries) ListSince(ctx context.Context, since time.Time) ([]delivery.Timestamps, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+deliveryColumns+` FROM delivery_statuses WHERE sent_at >= $1 ORDER BY sent_at`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list delivery statuses: %w", err)
	}
	defer rows.Close()

	var out []delivery.Timestamps
	for rows.Next() {
		ts, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery status: %w", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery statuses: %w", err)
	}
	return out, nil
}

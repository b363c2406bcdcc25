package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/money"
	"github.com/dmitrymomot/condokit/pkg/pg"
)

// Invoices implements billing.Store.
// Period uniqueness is enforced by invoices_subscription_period_key.
type Invoices struct {
	db DB
}

func NewInvoices(db DB) *Invoices {
	return &Invoices{db: db}
}

const invoiceColumns = `id, subscription_id, tenant_id, amount_cents, currency, status, due_date,
	period_start, period_end, description, external_ref, paid_at, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (billing.Invoice, error) {
	var (
		inv      billing.Invoice
		cents    int64
		currency string
		status   string
	)
	err := row.Scan(
		&inv.ID, &inv.SubscriptionID, &inv.TenantID, &cents, &currency, &status, &inv.DueDate,
		&inv.PeriodStart, &inv.PeriodEnd, &inv.Description, &inv.ExternalRef, &inv.PaidAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return billing.Invoice{}, err
	}
	inv.Amount = money.New(cents, currency)
	inv.Status = billing.InvoiceStatus(status)
	return inv, nil
}

func (r *Invoices) GetByPeriod(ctx context.Context, subscriptionID uuid.UUID, periodStart time.Time) (billing.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE subscription_id = $1 AND period_start = $2`,
		subscriptionID, periodStart.UTC(),
	))
	if err != nil {
		if isNoRows(err) {
			return billing.Invoice{}, billing.ErrInvoiceNotFound
		}
		return billing.Invoice{}, fmt.Errorf("get invoice by period: %w", err)
	}
	return inv, nil
}

func (r *Invoices) GetByID(ctx context.Context, id uuid.UUID) (billing.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id,
	))
	if err != nil {
		if isNoRows(err) {
			return billing.Invoice{}, billing.ErrInvoiceNotFound
		}
		return billing.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

const insertInvoice = `
	INSERT INTO invoices (` + invoiceColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (subscription_id, period_start) DO NOTHING`

// Create inserts inv. A concurrent insert for the same period yields
// billing.ErrInvoiceExists.
func (r *Invoices) Create(ctx context.Context, inv billing.Invoice) error {
	tag, err := r.db.Exec(ctx, insertInvoice,
		inv.ID, inv.SubscriptionID, inv.TenantID, inv.Amount.Amount, inv.Amount.Currency,
		string(inv.Status), inv.DueDate, inv.PeriodStart, inv.PeriodEnd, inv.Description,
		inv.ExternalRef, inv.PaidAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(billing.ErrInvoiceExists, err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceExists
	}
	return nil
}

const updateInvoiceStatus = `
	UPDATE invoices
	SET status = $2, paid_at = $3, updated_at = $4
	WHERE id = $1`

func (r *Invoices) UpdateStatus(ctx context.Context, id uuid.UUID, status billing.InvoiceStatus, paidAt *time.Time, updatedAt time.Time) error {
	tag, err := r.db.Exec(ctx, updateInvoiceStatus, id, string(status), paidAt, updatedAt)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return billing.ErrInvoiceNotFound
	}
	return nil
}

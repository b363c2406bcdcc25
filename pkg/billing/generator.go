package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/money"
)

// InvoiceRequest describes the invoice for one subscription period.
type InvoiceRequest struct {
	SubscriptionID uuid.UUID
	TenantID       uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	DueDate        time.Time
	Amount         money.Money
	Description    string
}

func (r InvoiceRequest) validate() error {
	switch {
	case r.SubscriptionID == uuid.Nil:
		return fmt.Errorf("%w: subscription id is required", ErrInvalidInvoiceRequest)
	case r.PeriodStart.IsZero():
		return fmt.Errorf("%w: period start is required", ErrInvalidInvoiceRequest)
	case !r.PeriodEnd.After(r.PeriodStart):
		return fmt.Errorf("%w: period end must be after period start", ErrInvalidInvoiceRequest)
	case !r.Amount.IsPositive():
		return ErrZeroAmount
	}
	return nil
}

// EnsureResult reports the outcome of EnsureInvoice. Invoice is the created
// invoice, or the existing one when Skipped is true and it could be loaded.
type EnsureResult struct {
	Invoice *Invoice
	Skipped bool
}

// Generator creates at most one invoice per subscription period.
type Generator struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(store Store, opts ...GeneratorOption) *Generator {
	g := &Generator{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureInvoice creates the invoice for req unless one already exists for the
// same subscription and period start. Amounts must be positive.
func (g *Generator) EnsureInvoice(ctx context.Context, req InvoiceRequest) (EnsureResult, error) {
	if err := req.validate(); err != nil {
		return EnsureResult{}, err
	}
	periodStart := req.PeriodStart.UTC()

	existing, err := g.store.GetByPeriod(ctx, req.SubscriptionID, periodStart)
	switch {
	case err == nil:
		g.logSkipped(ctx, req, existing.ID)
		return EnsureResult{Invoice: &existing, Skipped: true}, nil
	case !errors.Is(err, ErrInvoiceNotFound):
		return EnsureResult{}, errors.Join(ErrFailedToCheckInvoice, err)
	}

	now := g.now().UTC()
	inv := Invoice{
		ID:             uuid.New(),
		SubscriptionID: req.SubscriptionID,
		TenantID:       req.TenantID,
		Amount:         req.Amount,
		Status:         InvoicePending,
		DueDate:        req.DueDate.UTC(),
		PeriodStart:    periodStart,
		PeriodEnd:      req.PeriodEnd.UTC(),
		Description:    req.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := g.store.Create(ctx, inv); err != nil {
		if errors.Is(err, ErrInvoiceExists) {
			// a concurrent run won the insert
			g.logSkipped(ctx, req, nil)
			if winner, gerr := g.store.GetByPeriod(ctx, req.SubscriptionID, periodStart); gerr == nil {
				return EnsureResult{Invoice: &winner, Skipped: true}, nil
			}
			return EnsureResult{Skipped: true}, nil
		}
		return EnsureResult{}, errors.Join(ErrFailedToCreateInvoice, err)
	}

	g.logger.LogAttrs(ctx, slog.LevelInfo, "invoice created",
		logger.InvoiceID(inv.ID),
		logger.SubscriptionID(inv.SubscriptionID),
		slog.String("amount", inv.Amount.String()),
		slog.Time("period_start", inv.PeriodStart),
	)
	return EnsureResult{Invoice: &inv}, nil
}

func (g *Generator) logSkipped(ctx context.Context, req InvoiceRequest, existing any) {
	g.logger.LogAttrs(ctx, slog.LevelDebug, "invoice already exists for period",
		logger.SubscriptionID(req.SubscriptionID),
		logger.InvoiceID(existing),
		slog.Time("period_start", req.PeriodStart.UTC()),
	)
}

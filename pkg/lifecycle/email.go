package lifecycle

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/condokit/pkg/billing"
	"github.com/dmitrymomot/condokit/pkg/email"
	"github.com/dmitrymomot/condokit/pkg/logger"
)

func (m *Manager) sendEmail(ctx context.Context, contact Contact, plan billing.Plan, inv billing.Invoice, r *RunResult) {
	err := m.mailer.SendInvoice(ctx, email.InvoiceMessage{
		ToName:      contact.Name,
		ToEmail:     contact.Email,
		PlanName:    plan.DisplayName(),
		InvoiceID:   inv.ID.String(),
		Amount:      inv.Amount,
		DueDate:     inv.DueDate,
		PeriodStart: inv.PeriodStart,
		PeriodEnd:   inv.PeriodEnd,
		Description: inv.Description,
	})
	if err != nil {
		r.EmailsFailed++
		m.logger.LogAttrs(ctx, slog.LevelWarn, "invoice e-mail failed",
			logger.InvoiceID(inv.ID),
			logger.Error(err),
		)
		return
	}
	r.EmailsSent++
}

package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/condokit/pkg/email/templates"
	"github.com/dmitrymomot/condokit/pkg/logger"
	"github.com/dmitrymomot/condokit/pkg/money"
	"github.com/dmitrymomot/condokit/pkg/qrcode"
)

// InvoiceTag is the Postmark tag attached to invoice e-mails.
const InvoiceTag = "invoice-generated"

// InvoiceMessage describes a freshly generated invoice for its recipient.
type InvoiceMessage struct {
	ToName      string
	ToEmail     string
	PlanName    string
	InvoiceID   string
	Amount      money.Money
	DueDate     time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time
	Description string
	PaymentURL  string
}

// InvoiceMailer renders invoice e-mails and hands them to an EmailSender.
type InvoiceMailer struct {
	sender       EmailSender
	supportEmail string
	paymentURL   func(invoiceID string) string
	logger       *slog.Logger
}

// InvoiceMailerOption configures an InvoiceMailer.
type InvoiceMailerOption func(*InvoiceMailer)

// WithSupportEmail shows a contact address in the footer.
func WithSupportEmail(addr string) InvoiceMailerOption {
	return func(m *InvoiceMailer) { m.supportEmail = addr }
}

// WithPaymentURLFormat derives the payment link from a fmt pattern containing %s.
func WithPaymentURLFormat(format string) InvoiceMailerOption {
	return func(m *InvoiceMailer) {
		if strings.Contains(format, "%s") {
			m.paymentURL = func(id string) string { return fmt.Sprintf(format, id) }
		}
	}
}

// WithMailerLogger sets the logger.
func WithMailerLogger(l *slog.Logger) InvoiceMailerOption {
	return func(m *InvoiceMailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewInvoiceMailer wraps sender.
func NewInvoiceMailer(sender EmailSender, opts ...InvoiceMailerOption) *InvoiceMailer {
	m := &InvoiceMailer{sender: sender, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendInvoice renders and sends the invoice e-mail. When a payment link is
// known it is embedded both as an anchor and as a QR code.
func (m *InvoiceMailer) SendInvoice(ctx context.Context, msg InvoiceMessage) error {
	link := msg.PaymentURL
	if link == "" && m.paymentURL != nil && msg.InvoiceID != "" {
		link = m.paymentURL(msg.InvoiceID)
	}

	data := templates.InvoiceData{
		RecipientName: msg.ToName,
		PlanName:      msg.PlanName,
		Amount:        msg.Amount.FormatBR(),
		DueDate:       formatDate(msg.DueDate),
		PeriodStart:   formatDate(msg.PeriodStart),
		PeriodEnd:     formatDate(msg.PeriodEnd),
		Description:   msg.Description,
		InvoiceID:     msg.InvoiceID,
		PaymentURL:    link,
		SupportEmail:  m.supportEmail,
	}
	if link != "" {
		qr, err := qrcode.DataURI(link, qrcode.WithSize(200))
		if err != nil {
			// The anchor is still usable without the image.
			m.logger.LogAttrs(ctx, slog.LevelWarn, "payment qr code skipped",
				logger.Component("email"),
				logger.Error(err),
			)
		} else {
			data.QRCode = qr
		}
	}

	body, err := templates.Render(ctx, templates.Invoice(data))
	if err != nil {
		return errors.Join(ErrFailedToRender, err)
	}

	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   msg.ToEmail,
		Subject:  invoiceSubject(msg),
		BodyHTML: body,
		Tag:      InvoiceTag,
	})
}

func invoiceSubject(msg InvoiceMessage) string {
	if msg.DueDate.IsZero() {
		return "Nova fatura " + msg.PlanName
	}
	return fmt.Sprintf("Nova fatura %s - vencimento %s", msg.PlanName, formatDate(msg.DueDate))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

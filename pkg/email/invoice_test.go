package email_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/condokit/pkg/email"
	"github.com/dmitrymomot/condokit/pkg/money"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	return m.Called(ctx, params).Error(0)
}

func invoiceMessage() email.InvoiceMessage {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	return email.InvoiceMessage{
		ToName:      "Ana <Síndica>",
		ToEmail:     "ana@example.com",
		PlanName:    "Essencial",
		InvoiceID:   "3f1c2a9e-0000-4000-8000-000000000001",
		Amount:      money.New(4990, "BRL"),
		DueDate:     start.AddDate(0, 0, 15),
		PeriodStart: start,
		PeriodEnd:   start.AddDate(0, 1, 0),
		Description: "Assinatura Essencial - 10/03/2025 a 10/04/2025",
	}
}

func TestInvoiceMailer_SendInvoice(t *testing.T) {
	t.Parallel()

	t.Run("renders invoice with payment link and qr code", func(t *testing.T) {
		t.Parallel()

		sender := new(mockSender)
		var sent email.SendEmailParams
		sender.On("SendEmail", mock.Anything, mock.AnythingOfType("email.SendEmailParams")).
			Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
			Return(nil).Once()

		mailer := email.NewInvoiceMailer(sender,
			email.WithSupportEmail("suporte@condokit.com.br"),
			email.WithPaymentURLFormat("https://pay.condokit.com.br/i/%s"),
		)
		require.NoError(t, mailer.SendInvoice(context.Background(), invoiceMessage()))
		sender.AssertExpectations(t)

		assert.Equal(t, "ana@example.com", sent.SendTo)
		assert.Equal(t, email.InvoiceTag, sent.Tag)
		assert.Equal(t, "Nova fatura Essencial - vencimento 25/03/2025", sent.Subject)
		assert.Contains(t, sent.BodyHTML, "R$")
		assert.Contains(t, sent.BodyHTML, "49,90")
		assert.Contains(t, sent.BodyHTML, "10/03/2025 a 10/04/2025")
		assert.Contains(t, sent.BodyHTML, "https://pay.condokit.com.br/i/3f1c2a9e-0000-4000-8000-000000000001")
		assert.Contains(t, sent.BodyHTML, "data:image/png;base64,")
		assert.Contains(t, sent.BodyHTML, "suporte@condokit.com.br")
		assert.Contains(t, sent.BodyHTML, "Ana &lt;Síndica&gt;")
	})

	t.Run("explicit payment url wins", func(t *testing.T) {
		t.Parallel()

		sender := new(mockSender)
		sender.On("SendEmail", mock.Anything, mock.MatchedBy(func(p email.SendEmailParams) bool {
			return strings.Contains(p.BodyHTML, "https://gateway.example/checkout/1") &&
				!strings.Contains(p.BodyHTML, "https://ignored/")
		})).Return(nil).Once()

		msg := invoiceMessage()
		msg.PaymentURL = "https://gateway.example/checkout/1"
		mailer := email.NewInvoiceMailer(sender, email.WithPaymentURLFormat("https://ignored/%s"))
		require.NoError(t, mailer.SendInvoice(context.Background(), msg))
		sender.AssertExpectations(t)
	})

	t.Run("no link means no qr code", func(t *testing.T) {
		t.Parallel()

		sender := new(mockSender)
		var sent email.SendEmailParams
		sender.On("SendEmail", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
			Return(nil).Once()

		require.NoError(t, email.NewInvoiceMailer(sender).SendInvoice(context.Background(), invoiceMessage()))
		assert.NotContains(t, sent.BodyHTML, "data:image/png")
		assert.NotContains(t, sent.BodyHTML, "Pagar fatura")
	})

	t.Run("sender error is returned", func(t *testing.T) {
		t.Parallel()

		sender := new(mockSender)
		sender.On("SendEmail", mock.Anything, mock.Anything).Return(email.ErrFailedToSendEmail).Once()

		err := email.NewInvoiceMailer(sender).SendInvoice(context.Background(), invoiceMessage())
		assert.True(t, errors.Is(err, email.ErrFailedToSendEmail))
	})

	t.Run("dev sender end to end", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := email.NewInvoiceMailer(email.NewDevSender(dir)).SendInvoice(context.Background(), invoiceMessage())
		require.NoError(t, err)
		readDir(t, dir)
	})
}

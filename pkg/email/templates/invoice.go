package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// InvoiceData holds preformatted values for the invoice e-mail.
type InvoiceData struct {
	RecipientName string
	PlanName      string
	Amount        string
	DueDate       string
	PeriodStart   string
	PeriodEnd     string
	Description   string
	InvoiceID     string
	PaymentURL    string
	QRCode        string // data URI, optional
	SupportEmail  string
}

// Invoice is the "new invoice" e-mail body.
func Invoice(d InvoiceData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		e := templ.EscapeString[string]

		b.WriteString(`<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8"><title>Nova fatura</title></head>`)
		b.WriteString(`<body style="font-family:Arial,sans-serif;color:#1f2937;">`)
		b.WriteString(`<h1 style="font-size:20px;">Nova fatura disponível</h1>`)
		if d.RecipientName != "" {
			b.WriteString(`<p>Olá, ` + e(d.RecipientName) + `.</p>`)
		}
		b.WriteString(`<p>` + e(d.Description) + `</p>`)
		b.WriteString(`<table cellpadding="4" style="border-collapse:collapse;">`)
		row(&b, "Plano", d.PlanName)
		row(&b, "Valor", d.Amount)
		row(&b, "Vencimento", d.DueDate)
		row(&b, "Período", d.PeriodStart+" a "+d.PeriodEnd)
		row(&b, "Fatura", d.InvoiceID)
		b.WriteString(`</table>`)
		if d.PaymentURL != "" {
			b.WriteString(`<p><a href="` + e(d.PaymentURL) + `">Pagar fatura</a></p>`)
		}
		if d.QRCode != "" {
			b.WriteString(`<p><img alt="QR code de pagamento" width="200" height="200" src="` + e(d.QRCode) + `"></p>`)
		}
		if d.SupportEmail != "" {
			b.WriteString(`<p style="font-size:12px;color:#6b7280;">Dúvidas: ` + e(d.SupportEmail) + `</p>`)
		}
		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(`<tr><td><strong>` + templ.EscapeString(label) + `</strong></td><td>` + templ.EscapeString(value) + `</td></tr>`)
}

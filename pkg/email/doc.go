// Package email delivers transactional e-mails for the billing engine.
//
// EmailSender is the transport abstraction with two implementations:
// a Postmark client for production and DevSender, which writes each message
// to disk as an .html body plus .json metadata. NewSender chooses between
// them based on Config.
//
// InvoiceMailer sits on top of a sender and turns an InvoiceMessage into the
// "new invoice" e-mail rendered by the templ component in the templates
// subpackage. When a payment link is available it is embedded as a QR code.
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//		return err
//	}
//	mailer := email.NewInvoiceMailer(sender,
//		email.WithSupportEmail(cfg.SupportEmail),
//		email.WithPaymentURLFormat(cfg.PaymentURLFormat),
//	)
//	err = mailer.SendInvoice(ctx, msg)
//
// Validation failures wrap ErrInvalidParams or ErrInvalidConfig; transport
// failures wrap ErrFailedToSendEmail.
package email

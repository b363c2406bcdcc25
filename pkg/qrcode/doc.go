// Package qrcode renders short payloads, typically invoice payment links,
// as QR code images.
//
// PNG returns raw image bytes; DataURI wraps them into a base64 data URI that
// can be embedded into HTML e-mails:
//
//	src, err := qrcode.DataURI("https://pay.example.com/inv_123", qrcode.WithSize(200))
//	if err != nil {
//		return err
//	}
//
// Both helpers reject blank content with ErrEmptyContent.
package qrcode

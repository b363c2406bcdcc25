package billing

import "errors"

var (
	ErrInvoiceExists         = errors.New("invoice already exists for this period")
	ErrInvoiceNotFound       = errors.New("invoice not found")
	ErrZeroAmount            = errors.New("invoice amount must be positive")
	ErrInvalidInvoiceRequest = errors.New("invalid invoice request")
	ErrFailedToCreateInvoice = errors.New("failed to create invoice")
	ErrFailedToCheckInvoice  = errors.New("failed to check existing invoice")
	ErrFailedToUpdateInvoice = errors.New("failed to update invoice status")
	ErrInvalidTransition     = errors.New("invalid invoice status transition")

	ErrFailedToLoadPlans = errors.New("failed to load plans")
	ErrInvalidPlan       = errors.New("invalid plan configuration")

	ErrInvalidSignature    = errors.New("payment callback signature verification failed")
	ErrInvalidCallback     = errors.New("invalid payment callback payload")
	ErrUnsupportedCallback = errors.New("unsupported payment callback event")
	ErrMissingInvoiceID    = errors.New("payment callback has no invoice id")
	ErrMissingSecret       = errors.New("payment callback secret is required")
)

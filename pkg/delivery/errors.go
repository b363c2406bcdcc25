package delivery

import "errors"

var (
	ErrNotFound          = errors.New("delivery record not found")
	ErrAlreadyExists     = errors.New("delivery record already exists")
	ErrInvalidPayload    = errors.New("invalid delivery webhook payload")
	ErrUnsupportedEvent  = errors.New("unsupported delivery webhook event")
	ErrMissingMessageID  = errors.New("delivery webhook has no message id")
	ErrUnknownProvider   = errors.New("unknown delivery webhook provider")
	ErrFailedToReconcile = errors.New("failed to reconcile delivery status")
)

package engine

import "errors"

var (
	ErrUnknownJob        = errors.New("unknown job")
	ErrInvalidSignature  = errors.New("webhook signature verification failed")
	ErrMissingSignature  = errors.New("webhook signature headers are missing")
	ErrSignatureExpired  = errors.New("webhook signature timestamp outside the accepted window")
	ErrInvalidJobParams  = errors.New("invalid job parameters")
	ErrPaymentsDisabled  = errors.New("payment callbacks are not configured")
	ErrDeliveriesMissing = errors.New("delivery tracking is not configured")
)

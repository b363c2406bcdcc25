package messaging

import "errors"

var (
	ErrUnknownProvider   = errors.New("unknown messaging provider")
	ErrDuplicateProvider = errors.New("messaging provider already registered")
	ErrInvalidConfig     = errors.New("invalid messaging provider configuration")
	ErrCircuitOpen       = errors.New("messaging provider circuit breaker is open")
	ErrTimeout           = errors.New("messaging provider request timeout")
	ErrTransport         = errors.New("messaging provider request failed")
	ErrUnexpectedStatus  = errors.New("messaging provider returned unexpected status")
	ErrInvalidResponse   = errors.New("messaging provider returned an invalid response")
	ErrRejected          = errors.New("messaging provider rejected the message")
)

package dispatch

import "errors"

var (
	ErrTemplateNotFound  = errors.New("template not found")
	ErrNoActiveProvider  = errors.New("no active messaging provider configured")
	ErrInvalidRecipient  = errors.New("invalid recipient phone")
	ErrProviderFailed    = errors.New("messaging provider failed")
	ErrFailedToRecord    = errors.New("failed to record dispatch attempt")
	ErrConfigUnavailable = errors.New("failed to load messaging provider configuration")
)

package lifecycle

import "errors"

var (
	ErrFailedToListSubscriptions = errors.New("failed to list active subscriptions")
	ErrFailedToPersist           = errors.New("failed to persist subscription period")
	ErrContactNotFound           = errors.New("owner contact not found")
	ErrFailedToPrice             = errors.New("failed to resolve plan price")
	ErrSubscriptionNotFound      = errors.New("subscription not found")
)

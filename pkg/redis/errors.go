package redis

import "errors"

var (
	ErrEmptyConnectionURL   = errors.New("empty redis connection URL")
	ErrInvalidConnectionURL = errors.New("invalid redis connection URL")
	ErrNotReady             = errors.New("redis did not answer before the connect deadline")
	ErrHealthcheckFailed    = errors.New("redis ping failed")
)

package domain

import "errors"

var (
	ErrNotFound         = errors.New("job not found")
	ErrConcurrencyLimit = errors.New("too many concurrent requests")
	ErrDailyLimit       = errors.New("daily request limit reached")
	ErrProviderFailure  = errors.New("provider failure")
)

package ratelimit

import "errors"

var (
	ErrQuotaExceeded       = errors.New("rate limit exceeded")
	ErrStoreUnavailable    = errors.New("quota store unavailable")
	ErrInvalidCacheOptions = errors.New("invalid cache options")
	ErrUnknownTier         = errors.New("unknown tier")
)

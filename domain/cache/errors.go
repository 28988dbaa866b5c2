package cache

import "errors"

// Domain errors for cache operations. These are observability signals:
// callers must treat any cache error as a miss.
var (
	// ErrInvalidKey is returned when a fingerprint is empty.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrConnectionFailed is returned when a shared cache backend is
	// unreachable.
	ErrConnectionFailed = errors.New("cache connection failed")
)

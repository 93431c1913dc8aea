package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a minimal TTL key/value store. The service uses it for the
// provider model catalog and provider status probes; values are raw bytes
// (callers JSON-encode what they need). Implementations may be shared
// (Redis) or process-local (in-memory).
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

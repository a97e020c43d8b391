package cache

import (
	"context"
	"time"
)

// Cache is a small JSON-value cache; the fence service uses it to cut a DB
// round trip on hot validation paths.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

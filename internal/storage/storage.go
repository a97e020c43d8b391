package storage

import (
	"context"
	"io"
	"time"
)

// Uploader writes one object and returns the stored object key.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedKey string, err error)
}

// Signer mints short-lived read URLs for private objects.
type Signer interface {
	SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error)
}

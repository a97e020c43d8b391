package storage

import (
	"context"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSBucket uploads resume objects and signs short-lived read URLs. Objects
// stay private; the frontend only ever sees signed URLs.
type GCSBucket struct {
	client *gcs.Client
	bucket string
}

func NewGCSBucket(ctx context.Context, bucket string) (*GCSBucket, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSBucket{client: c, bucket: bucket}, nil
}

func (b *GCSBucket) Close() error { return b.client.Close() }

func (b *GCSBucket) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	obj := b.client.Bucket(b.bucket).Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return objectName, nil
}

func (b *GCSBucket) SignedGetURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return b.client.Bucket(b.bucket).SignedURL(objectName, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
}

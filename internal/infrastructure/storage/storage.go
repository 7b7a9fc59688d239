// Package storage keeps conversation media in an object store. MinIO (or any
// S3-compatible service) and Google Cloud Storage are supported.
package storage

import (
	"context"
	"io"
)

// ObjectStorage is the set of object operations the app uses.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Bucket() string
}

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by DownloadText when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStorage defines the object storage operations the ingest pipeline and
// retention sweep need. Buckets separate raw HTML, cleaned text, and
// attachments; keys are article-prefix scoped.
type ObjectStorage interface {
	// UploadText uploads a UTF-8 text blob.
	UploadText(ctx context.Context, bucket, key, content string) error

	// DownloadText downloads a text blob. Returns ErrNotFound for missing keys.
	DownloadText(ctx context.Context, bucket, key string) (string, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Exists checks if an object exists.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// EnsureBuckets creates the given buckets if they do not exist.
	EnsureBuckets(ctx context.Context, buckets ...string) error
}

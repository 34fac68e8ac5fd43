package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves raw uploaded files.
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
	// URL returns the address clients use to download the stored object.
	URL(storageKey string) string
}

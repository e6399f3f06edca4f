package storage

import (
	"context"
	"io"
)

// ImageStore persists generated illustration images. Save returns the key
// of the stored object and a URL clients can fetch it from.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (key string, url string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

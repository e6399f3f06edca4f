package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore saves generated images on the local filesystem. Images are
// served back through the API under servePrefix.
type DiskStore struct {
	basePath    string
	servePrefix string
}

// NewDiskStore creates the base directory if missing.
func NewDiskStore(basePath, servePrefix string) (*DiskStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("image storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image storage dir: %w", err)
	}
	servePrefix = strings.TrimRight(servePrefix, "/")
	if servePrefix == "" {
		servePrefix = "/api/images"
	}
	return &DiskStore{basePath: basePath, servePrefix: servePrefix}, nil
}

// Save writes the image under a generated key.
func (d *DiskStore) Save(_ context.Context, data []byte, contentType string) (string, string, error) {
	key := uuid.NewString() + extensionFor(contentType)
	target := filepath.Join(d.basePath, key)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write image file: %w", err)
	}
	return key, d.servePrefix + "/" + key, nil
}

// Open returns the stored image content and its content type.
func (d *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	key = filepath.Base(key)
	f, err := os.Open(filepath.Join(d.basePath, key))
	if err != nil {
		return nil, "", fmt.Errorf("open image file: %w", err)
	}
	return f, contentTypeFor(key), nil
}

// Delete removes a stored image. Missing files are not an error.
func (d *DiskStore) Delete(_ context.Context, key string) error {
	key = filepath.Base(key)
	err := os.Remove(filepath.Join(d.basePath, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func contentTypeFor(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

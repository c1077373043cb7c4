package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// FSStore keeps images as files in one directory.
type FSStore struct {
	basePath string
}

// NewFSStore creates a new FSStore and ensures the base directory exists.
func NewFSStore(basePath string) (*FSStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", basePath, err)
	}
	return &FSStore{basePath: basePath}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.basePath, filepath.Base(key))
}

func (s *FSStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := os.WriteFile(s.path(key), body, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	f, err := os.Open(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

// Size reports the bytes used by stored images.
func (s *FSStore) Size() (int64, error) {
	var size int64
	err := filepath.Walk(s.basePath, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

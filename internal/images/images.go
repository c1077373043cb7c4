// Package images stores uploaded recipe and meal pictures on the local
// filesystem or in an S3 bucket.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("image not found")
	ErrUnsupported = errors.New("only image uploads are accepted")
	ErrTooLarge    = errors.New("image is too large")
)

// MaxSize bounds a single upload.
const MaxSize = 10 << 20

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Open returns ErrNotFound for unknown keys.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Uploader names uploads and builds the URL clients store on records.
type Uploader struct {
	store     Store
	publicURL string
}

// NewUploader returns an uploader. With an empty publicURL images are
// served by this application under /api/images/.
func NewUploader(store Store, publicURL string) *Uploader {
	return &Uploader{store: store, publicURL: strings.TrimRight(publicURL, "/")}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds the storage key: a random uuid followed by the sanitized
// original file name.
func Key(filename string) string {
	base := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	if base == "." || base == "_" || base == "" {
		base = "image"
	}
	return uuid.NewString() + base
}

// Save reads an upload, checks that it is an image and stores it. It returns
// the public URL.
func (u *Uploader) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(body) > MaxSize {
		return "", ErrTooLarge
	}
	contentType := http.DetectContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupported
	}

	key := Key(filename)
	if err := u.store.Put(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return u.URL(key), nil
}

// URL returns where clients fetch the image stored under key.
func (u *Uploader) URL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	return "/api/images/" + key
}

// Open streams a stored image.
func (u *Uploader) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return nil, "", ErrNotFound
	}
	return u.store.Open(ctx, key)
}

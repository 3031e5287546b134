// Package localstore is the object storage adapter: file uploads land on
// local disk under per-bucket directories and are served back over the
// application's /uploads route.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadBytes = 10 << 20 // 10 MiB

var ErrTooLarge = errors.New("file exceeds upload size limit")

// Store writes uploads under root/<bucket>/ and builds public URLs from
// baseURL, e.g. http://host/uploads/<bucket>/<name>.
type Store struct {
	root    string
	baseURL string
}

func New(root, baseURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Store{root: root, baseURL: baseURL}, nil
}

// Root returns the directory uploads are written under, for the static route.
func (s *Store) Root() string { return s.root }

// Upload stores r under a generated name with the given extension and
// returns the public URL. The extension must already be validated by the
// caller against the allowed types for the bucket.
func (s *Store) Upload(ctx context.Context, bucket, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > maxUploadBytes {
		os.Remove(path)
		return "", ErrTooLarge
	}
	return s.PublicURL(bucket, name), nil
}

// PublicURL builds the URL a stored object is served from.
func (s *Store) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, bucket, name)
}

package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore writes blobs below a root directory, which is also served as
// static files by the HTTP layer.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory when missing.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, Error.Wrap(err)
	}
	return &LocalStore{root: root}, nil
}

// Root returns the directory blobs are written to.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Put writes to a temp file and renames it into place so readers never
// observe a partial blob.
func (s *LocalStore) Put(ctx context.Context, key string, body []byte, contentType string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Error.Wrap(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Error.Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(body); err != nil {
		_ = tmp.Close()
		return Error.Wrap(err)
	}
	if err = tmp.Close(); err != nil {
		return Error.Wrap(err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return Error.Wrap(err)
	}
	return Error.Wrap(os.Rename(tmp.Name(), dst))
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Error.Wrap(err)
	}
	return nil
}

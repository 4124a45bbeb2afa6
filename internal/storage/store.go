// Package storage keeps uploaded media bytes outside the database.
package storage

import (
	"context"
	"strings"

	"github.com/zeebo/errs"
)

// Error is the class of all storage errors.
var Error = errs.Class("storage")

// Store persists media blobs under slash separated keys such as "media/<uuid>.png".
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// cleanKey rejects keys that could escape the store's root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", Error.New("empty key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", Error.New("invalid key %q", key)
		}
	}
	return key, nil
}

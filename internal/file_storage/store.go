package filestorage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound means the key has no object. Callers treat it as a cue to
	// regenerate, never as a fatal error.
	ErrNotFound = errors.New("filestorage: not found")
	// ErrUnavailable means the backend could not be reached or failed.
	ErrUnavailable = errors.New("filestorage: unavailable")
	ErrInvalidKey  = errors.New("filestorage: invalid key")
)

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// Meta is stored alongside an object where the backend supports it.
type Meta struct {
	ContentType string
	// CID is the content identifier of the bytes, kept as object metadata so
	// operators can check an object without the database.
	CID string
}

// Store is a flat key to bytes blob store. Put overwrites.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, meta Meta) error
	Delete(ctx context.Context, key string) error
}

// RevisionPDFKey is the storage key of a revision's rendered PDF.
func RevisionPDFKey(certificateID string, revision int) string {
	return fmt.Sprintf("certs/%s/revisions/%d.pdf", certificateID, revision)
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || seg == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, op, key, err)
}

// Package storage keeps uploaded product images and hands back the URL
// clients should load them from.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("storage: invalid key")

// Storage defines blob operations used by the product service.
type Storage interface {
	// Put stores r under key and returns the public URL of the object.
	// size is -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ObjectKey builds a collision-free key under prefix that keeps the
// extension of the uploaded filename.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 {
		ext = ""
	}

	return path.Join(strings.Trim(prefix, "/"), uuid.NewString()+ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

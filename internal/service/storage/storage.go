package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

// ExportSink archives downloaded export files. Location returns a value the
// sink understands on later Open/Delete calls.
type ExportSink interface {
	Save(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Kind() string
}

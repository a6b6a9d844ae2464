// pkg/anonymizer/trusted.go
package anonymizer

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// TrustedReader is the only read path to original content. It is a separate
// type from Anonymizer so the normalization call chain never holds a resolve
// capability: construct it only inside the downstream model stage, never in
// anything that serves user-facing output.
type TrustedReader struct {
	store  ContentStore
	logger *zap.Logger
}

// NewTrustedReader creates a reader over the given content store.
func NewTrustedReader(store ContentStore, logger *zap.Logger) (*TrustedReader, error) {
	if store == nil {
		return nil, errors.New("content store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &TrustedReader{
		store:  store,
		logger: logger.Named("trusted-reader"),
	}, nil
}

// Resolve returns the original text behind a handle. A miss is reported as
// ErrNotFound, never as a failure of the stage that produced the handle.
func (r *TrustedReader) Resolve(ctx context.Context, handle string) (string, error) {
	if handle == "" {
		return "", ErrNotFound
	}

	entry, err := r.store.Get(ctx, handle)
	if err != nil {
		return "", err
	}
	return entry.Content, nil
}

// Package blobstore abstracts where uploaded files (inline signature images,
// consent documents) are kept. Implementations exist for the local
// filesystem and S3.
package blobstore

import (
	"context"

	"github.com/Abraxas-365/caremail/pkg/errx"
)

// Store reads and writes opaque blobs by key.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
}

var blobErrors = errx.NewRegistry("BLOBSTORE")

var (
	ErrNotFound    = blobErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Blob not found")
	ErrInvalidKey  = blobErrors.Register("INVALID_KEY", errx.TypeValidation, 400, "Invalid blob key")
	ErrReadFailed  = blobErrors.Register("READ_FAILED", errx.TypeInternal, 500, "Failed to read blob")
	ErrWriteFailed = blobErrors.Register("WRITE_FAILED", errx.TypeInternal, 500, "Failed to write blob")
)

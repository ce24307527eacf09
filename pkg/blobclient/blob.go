package blobclient

import (
	"context"
	"io"
)

// BlobClient stores exported CSV documents.
type BlobClient interface {
	// Upload stores data under container/blobName and returns its URL.
	Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (url string, err error)

	// Get retrieves a stored blob.
	Get(ctx context.Context, container, blobName string) (io.ReadCloser, error)
}

// UploadOptions contains optional parameters for upload operations.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

package blobclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MockBlobClient is an in-memory BlobClient for local runs and tests.
type MockBlobClient struct {
	mu    sync.RWMutex
	blobs map[string]mockBlob // container/blobName -> blob
}

type mockBlob struct {
	data []byte
	opts UploadOptions
}

// NewMockBlobClient creates a new mock blob client.
func NewMockBlobClient() *MockBlobClient {
	return &MockBlobClient{
		blobs: make(map[string]mockBlob),
	}
}

// Upload keeps data in memory.
func (m *MockBlobClient) Upload(ctx context.Context, container, blobName string, data io.Reader, opts UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	blobData, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[container+"/"+blobName] = mockBlob{data: blobData, opts: opts}

	return fmt.Sprintf("mock://%s/%s", container, blobName), nil
}

// Get returns a stored blob.
func (m *MockBlobClient) Get(ctx context.Context, container, blobName string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, exists := m.blobs[container+"/"+blobName]
	if !exists {
		return nil, fmt.Errorf("blob not found: %s/%s", container, blobName)
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// ContentType returns the content type a blob was uploaded with.
func (m *MockBlobClient) ContentType(container, blobName string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blobs[container+"/"+blobName].opts.ContentType
}

// Count returns the number of stored blobs.
func (m *MockBlobClient) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

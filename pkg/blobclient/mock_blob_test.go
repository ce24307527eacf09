package blobclient

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBlobClient_UploadAndGet(t *testing.T) {
	client := NewMockBlobClient()
	ctx := context.Background()

	url, err := client.Upload(ctx, "exports", "people.csv", strings.NewReader("\"a\"\n"), UploadOptions{ContentType: "text/csv"})
	require.NoError(t, err)
	assert.Equal(t, "mock://exports/people.csv", url)
	assert.Equal(t, "text/csv", client.ContentType("exports", "people.csv"))
	assert.Equal(t, 1, client.Count())

	reader, err := client.Get(ctx, "exports", "people.csv")
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "\"a\"\n", string(data))
}

func TestMockBlobClient_GetMissing(t *testing.T) {
	_, err := NewMockBlobClient().Get(context.Background(), "exports", "nope.csv")
	assert.Error(t, err)
}

func TestMockBlobClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockBlobClient().Upload(ctx, "exports", "x.csv", strings.NewReader("x"), UploadOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

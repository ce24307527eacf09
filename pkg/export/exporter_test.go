package export

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/csv-marshal-kit/pkg/blobclient"
	"github.com/yourorg/csv-marshal-kit/pkg/csvutil"
	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/marshaller"
	"github.com/yourorg/csv-marshal-kit/pkg/servicebusclient"
)

type failingBlob struct{ err error }

func (f failingBlob) Upload(context.Context, string, string, io.Reader, blobclient.UploadOptions) (string, error) {
	return "", f.err
}

func (f failingBlob) Get(context.Context, string, string) (io.ReadCloser, error) {
	return nil, f.err
}

func newTestExporter(t *testing.T, blob blobclient.BlobClient, bus servicebusclient.ServiceBusClient) *Exporter {
	t.Helper()
	e, err := NewExporter(Config{
		Container:  "exports",
		Queue:      "csv-exports",
		Format:     marshaller.DefaultFormat(),
		Terminator: csvutil.CRLF,
	}, blob, bus, nil)
	require.NoError(t, err)
	return e
}

func readBlob(t *testing.T, blob *blobclient.MockBlobClient, name string) string {
	t.Helper()
	r, err := blob.Get(context.Background(), "exports", name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestExporter_Export(t *testing.T) {
	blob := blobclient.NewMockBlobClient()
	bus := servicebusclient.NewMockServiceBusClient()
	e := newTestExporter(t, blob, bus)

	result, err := e.Export(context.Background(), Request{
		Source:        "hr system",
		Fields:        []string{"name", "address.city"},
		IncludeHeader: true,
		Records: []map[string]any{
			{"name": "Ada", "address": map[string]any{"city": "London"}},
			{"name": `Grace "Amazing" Hopper`, "address": map[string]any{"city": "New York"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RecordCount)
	assert.True(t, strings.HasPrefix(result.BlobName, "exports/hr-system/"))
	assert.True(t, strings.HasSuffix(result.BlobName, ".csv"))
	assert.Equal(t, "mock://exports/"+result.BlobName, result.URL)
	assert.Equal(t, "text/csv", blob.ContentType("exports", result.BlobName))

	expected := "\"name\",\"address.city\"\r\n" +
		"\"Ada\",\"London\"\r\n" +
		"\"Grace \"\"Amazing\"\" Hopper\",\"New York\"\r\n"
	assert.Equal(t, expected, readBlob(t, blob, result.BlobName))

	messages := bus.Messages("csv-exports")
	require.Len(t, messages, 1)
	assert.Equal(t, result.MessageID, messages[0].ID)
	assert.Equal(t, "application/json", messages[0].ContentType)

	var n Notification
	require.NoError(t, json.Unmarshal(messages[0].Body, &n))
	assert.Equal(t, "hr system", n.Source)
	assert.Equal(t, result.URL, n.URL)
	assert.Equal(t, 2, n.RecordCount)
}

func TestExporter_DefaultSourceWithoutQueue(t *testing.T) {
	blob := blobclient.NewMockBlobClient()
	e, err := NewExporter(Config{Container: "exports", Format: marshaller.DefaultFormat()}, blob, nil, nil)
	require.NoError(t, err)

	result, err := e.Export(context.Background(), Request{
		Fields:  []string{"id"},
		Records: []map[string]any{{"id": 7}},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.BlobName, "exports/api/"))
	assert.Empty(t, result.MessageID)
	assert.Equal(t, "\"7\"\n", readBlob(t, blob, result.BlobName))
}

func TestExporter_ExtractionErrorStoresNothing(t *testing.T) {
	blob := blobclient.NewMockBlobClient()
	bus := servicebusclient.NewMockServiceBusClient()
	e := newTestExporter(t, blob, bus)

	_, err := e.Export(context.Background(), Request{
		Fields:  []string{"name", "email"},
		Records: []map[string]any{{"name": "Ada", "email": "ada@example.com"}, {"name": "Grace"}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrorCodeExtraction))
	assert.Zero(t, blob.Count())
	assert.Empty(t, bus.Messages("csv-exports"))
}

func TestExporter_NotificationFailureIsNotFatal(t *testing.T) {
	blob := blobclient.NewMockBlobClient()
	bus := servicebusclient.NewMockServiceBusClient()
	bus.FailWith(stderrors.New("namespace unreachable"))
	e := newTestExporter(t, blob, bus)

	result, err := e.Export(context.Background(), Request{
		Fields:  []string{"id"},
		Records: []map[string]any{{"id": "a"}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.MessageID)
	assert.Equal(t, 1, blob.Count())
}

func TestExporter_UploadFailure(t *testing.T) {
	cause := stderrors.New("storage down")
	e := newTestExporter(t, failingBlob{err: cause}, nil)

	_, err := e.Export(context.Background(), Request{
		Fields:  []string{"id"},
		Records: []map[string]any{{"id": "a"}},
	})
	assert.True(t, errors.IsCode(err, errors.ErrorCodeServiceUnavailable))
	assert.ErrorIs(t, err, cause)
}

func TestExporter_InvalidRequest(t *testing.T) {
	e := newTestExporter(t, blobclient.NewMockBlobClient(), nil)

	requests := []Request{
		{Records: []map[string]any{{"id": 1}}},
		{Fields: []string{"id"}},
		{Fields: []string{""}, Records: []map[string]any{{"id": 1}}},
	}
	for _, req := range requests {
		_, err := e.Export(context.Background(), req)
		assert.True(t, errors.IsCode(err, errors.ErrorCodeValidation), "%+v", req)
	}
}

func TestExporter_CancelledContext(t *testing.T) {
	blob := blobclient.NewMockBlobClient()
	e := newTestExporter(t, blob, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Export(ctx, Request{Fields: []string{"id"}, Records: []map[string]any{{"id": 1}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, blob.Count())
}

func TestNewExporter_InvalidArguments(t *testing.T) {
	format := marshaller.DefaultFormat()

	_, err := NewExporter(Config{Container: "exports", Format: format}, nil, nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrorCodeInvalidArgument))

	_, err = NewExporter(Config{Format: format}, blobclient.NewMockBlobClient(), nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrorCodeInvalidArgument))

	_, err = NewExporter(Config{Container: "exports", Format: format.WithQualifier(',')}, blobclient.NewMockBlobClient(), nil, nil)
	assert.True(t, errors.IsCode(err, errors.ErrorCodeInvalidArgument))
}

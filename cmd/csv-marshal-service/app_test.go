package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/csv-marshal-kit/pkg/blobclient"
	"github.com/yourorg/csv-marshal-kit/pkg/config"
	"github.com/yourorg/csv-marshal-kit/pkg/csvutil"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
	"github.com/yourorg/csv-marshal-kit/pkg/servicebusclient"
)

type testService struct {
	router *gin.Engine
	blob   *blobclient.MockBlobClient
	bus    *servicebusclient.MockServiceBusClient
}

func newTestService(t *testing.T) *testService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig(config.NewCompositeConfigSource())
	require.NoError(t, err)

	blob := blobclient.NewMockBlobClient()
	bus := servicebusclient.NewMockServiceBusClient()
	server, err := newServer(cfg, logging.NewNopLogger(), blob, bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	return &testService{router: server.Router(), blob: blob, bus: bus}
}

func (s *testService) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	require.True(t, ok, "%v", resp)
	return d
}

func TestHealth(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetFormat(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodGet, "/api/v1/format", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{
		"delimiter":       ",",
		"qualifier":       `"`,
		"quote_mode":      "all",
		"line_terminator": "lf",
	}, data(t, resp))
}

func TestMarshal_DefaultFormat(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/marshal", `{
		"fields": ["first", "last", "team"],
		"payload": {"first": "John", "last": "Doe, Jr.", "team": "NY \"Yankees\""},
		"header": {"number": 7, "source": "crm", "creation_date": "2024-01-02T03:04:05Z"}
	}`)
	require.Equal(t, http.StatusOK, status, "%v", resp)

	d := data(t, resp)
	assert.Equal(t, `"John","Doe, Jr.","NY ""Yankees"""`, d["line"])

	header := d["header"].(map[string]any)
	assert.EqualValues(t, 7, header["number"])
	assert.Equal(t, "crm", header["source"])
	assert.Equal(t, "2024-01-02T03:04:05Z", header["creation_date"])
}

func TestMarshal_RequestFormat(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/marshal", `{
		"fields": ["name", "age", "address.city"],
		"payload": {"name": "Ada", "age": 36, "address": {"city": "London"}},
		"delimiter": ";",
		"qualifier": "'"
	}`)
	require.Equal(t, http.StatusOK, status, "%v", resp)
	assert.Equal(t, `'Ada';'36';'London'`, data(t, resp)["line"])

	status, resp = s.do(t, http.MethodPost, "/api/v1/marshal", `{
		"fields": ["name", "note"],
		"payload": {"name": "Ada", "note": "a,b"},
		"quote_mode": "minimal"
	}`)
	require.Equal(t, http.StatusOK, status, "%v", resp)
	assert.Equal(t, `Ada,"a,b"`, data(t, resp)["line"])

	// the request format does not stick
	status, resp = s.do(t, http.MethodPost, "/api/v1/marshal", `{"fields": ["name"], "payload": {"name": "Ada"}}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, `"Ada"`, data(t, resp)["line"])
}

func TestMarshal_LargeIntegers(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/marshal", `{
		"fields": ["id", "price", "nested.n"],
		"payload": {"id": 12345678901234567, "price": 1.50, "nested": {"n": -9007199254740993}}
	}`)
	require.Equal(t, http.StatusOK, status, "%v", resp)
	assert.Equal(t, `"12345678901234567","1.50","-9007199254740993"`, data(t, resp)["line"])
}

func TestMarshal_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{
			name:   "missing field",
			body:   `{"fields": ["name", "email"], "payload": {"name": "Ada"}}`,
			status: http.StatusUnprocessableEntity,
			code:   "EXTRACTION_FAILURE",
		},
		{
			name:   "qualifier equals delimiter",
			body:   `{"fields": ["name"], "payload": {"name": "Ada"}, "qualifier": ","}`,
			status: http.StatusBadRequest,
			code:   "INVALID_ARGUMENT",
		},
		{
			name:   "multi-character delimiter",
			body:   `{"fields": ["name"], "payload": {"name": "Ada"}, "delimiter": "||"}`,
			status: http.StatusBadRequest,
			code:   "INVALID_ARGUMENT",
		},
		{
			name:   "no fields",
			body:   `{"fields": [], "payload": {"name": "Ada"}}`,
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "unknown quote mode",
			body:   `{"fields": ["name"], "payload": {"name": "Ada"}, "quote_mode": "sometimes"}`,
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
	}

	s := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, http.MethodPost, "/api/v1/marshal", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp["code"])
		})
	}
}

func TestExport(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/export", `{
		"source": "crm",
		"fields": ["name", "city"],
		"include_header": true,
		"records": [
			{"name": "John", "city": "New York"},
			{"name": "Doe, Jr.", "city": "Boston"}
		]
	}`)
	require.Equal(t, http.StatusCreated, status, "%v", resp)

	d := data(t, resp)
	blobName := d["blob_name"].(string)
	assert.EqualValues(t, 2, d["record_count"])
	assert.NotEmpty(t, d["message_id"])
	assert.Len(t, s.bus.Messages("csv-exports"), 1)

	r, err := s.blob.Get(context.Background(), "csv-exports", blobName)
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(content), csvutil.LF), csvutil.LF)
	parser := csvutil.NewParser(csvutil.ParserConfig{})
	var rows [][]string
	for _, line := range lines {
		row, err := parser.ParseLine(line)
		require.NoError(t, err, line)
		rows = append(rows, row)
	}
	assert.Equal(t, [][]string{
		{"name", "city"},
		{"John", "New York"},
		{"Doe, Jr.", "Boston"},
	}, rows)
}

func TestExport_ExtractionFailure(t *testing.T) {
	s := newTestService(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/export", `{
		"fields": ["name", "city"],
		"records": [{"name": "John"}]
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "EXTRACTION_FAILURE", resp["code"])
	assert.Zero(t, s.blob.Count())
}

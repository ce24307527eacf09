// Package export turns batches of JSON objects into CSV documents, stores
// them in blob storage and announces them on a service bus queue.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourorg/csv-marshal-kit/pkg/blobclient"
	"github.com/yourorg/csv-marshal-kit/pkg/csvutil"
	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/field"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
	"github.com/yourorg/csv-marshal-kit/pkg/marshaller"
	"github.com/yourorg/csv-marshal-kit/pkg/record"
	"github.com/yourorg/csv-marshal-kit/pkg/servicebusclient"
	"github.com/yourorg/csv-marshal-kit/pkg/utils"
)

const (
	// DefaultSource names exports whose request has no source.
	DefaultSource = "api"

	csvContentType = "text/csv"
)

// Request describes one export.
type Request struct {
	Source        string           `json:"source" validate:"omitempty,max=100"`
	Fields        []string         `json:"fields" validate:"required,min=1,dive,required"`
	Records       []map[string]any `json:"records" validate:"required,min=1"`
	IncludeHeader bool             `json:"include_header"`
}

// Result describes a stored export.
type Result struct {
	BlobName    string `json:"blob_name"`
	URL         string `json:"url"`
	RecordCount int    `json:"record_count"`
	MessageID   string `json:"message_id,omitempty"`
}

// Notification is the message body sent after an export is stored.
type Notification struct {
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	BlobName    string    `json:"blob_name"`
	RecordCount int       `json:"record_count"`
	ExportedAt  time.Time `json:"exported_at"`
}

// Config configures an Exporter.
type Config struct {
	Container  string
	Queue      string // empty disables notifications
	Format     marshaller.Format
	Terminator string
}

// Exporter marshals, stores and announces CSV exports.
type Exporter struct {
	config   Config
	blob     blobclient.BlobClient
	bus      servicebusclient.ServiceBusClient
	logger   logging.Logger
	validate *validator.Validate
}

// NewExporter creates an Exporter. bus may be nil.
func NewExporter(cfg Config, blob blobclient.BlobClient, bus servicebusclient.ServiceBusClient, logger logging.Logger) (*Exporter, error) {
	if blob == nil {
		return nil, errors.NewInvalidArgumentError("blob client must not be nil")
	}
	if cfg.Container == "" {
		return nil, errors.NewInvalidArgumentError("container must not be empty")
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Exporter{
		config:   cfg,
		blob:     blob,
		bus:      bus,
		logger:   logger,
		validate: validator.New(),
	}, nil
}

// Export renders req.Records as CSV lines, uploads the document and sends a
// notification. Marshalling errors abort the export before anything is
// stored and are returned unchanged. A failed notification is logged only.
func (e *Exporter) Export(ctx context.Context, req Request) (*Result, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("invalid export request: " + err.Error())
	}
	source := req.Source
	if source == "" {
		source = DefaultSource
	}

	logger := e.logger.With(
		logging.NewField("operation", "export"),
		logging.NewField("source", source),
		logging.NewField("fields", len(req.Fields)),
	)

	extractor, err := field.NewMapExtractor(req.Fields...)
	if err != nil {
		return nil, err
	}
	m, err := marshaller.New[map[string]any](extractor,
		marshaller.WithLogger(logger),
		marshaller.WithFormat(e.config.Format),
	)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csvutil.NewLineWriter(&buf, e.config.Terminator)

	if req.IncludeHeader {
		names := make([]any, len(req.Fields))
		for i, name := range req.Fields {
			names[i] = name
		}
		line, err := e.config.Format.FormatLine(names)
		if err != nil {
			return nil, err
		}
		if err := w.WriteLine(line); err != nil {
			return nil, errors.NewInternalErrorWithErr("failed to buffer header", err)
		}
	}

	for i, payload := range req.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := m.Marshal(record.New(record.NewHeader(int64(i+1), source), payload))
		if err != nil {
			logger.Warn("Record marshalling failed", logging.NewField("record", i+1), logging.NewField("error", err))
			return nil, err
		}
		if err := w.WriteRecord(out); err != nil {
			return nil, errors.NewInternalErrorWithErr("failed to buffer record", err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, errors.NewInternalErrorWithErr("failed to buffer export", err)
	}

	blobName := fmt.Sprintf("exports/%s/%s.csv", objectSafe(source), utils.NewID())
	url, err := e.blob.Upload(ctx, e.config.Container, blobName, &buf, blobclient.UploadOptions{
		ContentType: csvContentType,
		Metadata: map[string]string{
			"source":  source,
			"records": strconv.Itoa(len(req.Records)),
		},
	})
	if err != nil {
		logger.Error("Export upload failed", logging.NewField("error", err))
		return nil, errors.NewServiceUnavailableError("failed to store export", err)
	}

	result := &Result{
		BlobName:    blobName,
		URL:         url,
		RecordCount: len(req.Records),
	}
	result.MessageID = e.notify(ctx, logger, source, result)

	logger.Info("Export stored",
		logging.NewField("blob", blobName),
		logging.NewField("records", result.RecordCount),
	)
	return result, nil
}

func (e *Exporter) notify(ctx context.Context, logger logging.Logger, source string, result *Result) string {
	if e.bus == nil || e.config.Queue == "" {
		return ""
	}

	body, err := json.Marshal(Notification{
		Source:      source,
		URL:         result.URL,
		BlobName:    result.BlobName,
		RecordCount: result.RecordCount,
		ExportedAt:  time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("Failed to encode export notification", logging.NewField("error", err))
		return ""
	}

	id, err := e.bus.Send(ctx, e.config.Queue, body,
		servicebusclient.WithContentType("application/json"),
		servicebusclient.WithProperties(map[string]interface{}{
			"source":       source,
			"record_count": result.RecordCount,
		}),
	)
	if err != nil {
		logger.Warn("Failed to send export notification", logging.NewField("error", err))
		return ""
	}
	return id
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func objectSafe(s string) string {
	return unsafeChars.ReplaceAllString(s, "-")
}

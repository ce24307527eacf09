package main

import (
	"github.com/gin-gonic/gin"

	"github.com/yourorg/csv-marshal-kit/pkg/config"
	"github.com/yourorg/csv-marshal-kit/pkg/csvutil"
	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/export"
	"github.com/yourorg/csv-marshal-kit/pkg/field"
	"github.com/yourorg/csv-marshal-kit/pkg/httpservice"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
	"github.com/yourorg/csv-marshal-kit/pkg/marshaller"
	"github.com/yourorg/csv-marshal-kit/pkg/record"
)

// App serves the marshalling API.
type App struct {
	format     marshaller.Format
	terminator string
	exporter   *export.Exporter
}

// NewApp creates an App rendering with format unless a request overrides it.
func NewApp(format marshaller.Format, terminator string, exporter *export.Exporter) *App {
	return &App{
		format:     format,
		terminator: terminator,
		exporter:   exporter,
	}
}

// Register implements the httpservice.Handler interface.
func (a *App) Register(router gin.IRouter) {
	router.GET("/format", httpservice.Wrap("get_format", a.handleFormat))
	router.POST("/marshal", httpservice.Wrap("marshal", a.handleMarshal))
	router.POST("/export", httpservice.Wrap("export", a.handleExport))
}

// FormatResponse describes a CSV format.
type FormatResponse struct {
	Delimiter      string `json:"delimiter"`
	Qualifier      string `json:"qualifier"`
	QuoteMode      string `json:"quote_mode"`
	LineTerminator string `json:"line_terminator,omitempty"`
}

func (a *App) handleFormat(c *gin.Context) error {
	resp := FormatResponse{
		Delimiter: string(a.format.Delimiter),
		Qualifier: string(a.format.Qualifier),
		QuoteMode: a.format.QuoteMode.String(),
	}
	if a.terminator == csvutil.CRLF {
		resp.LineTerminator = "crlf"
	} else {
		resp.LineTerminator = "lf"
	}
	httpservice.SuccessResponse(c, resp)
	return nil
}

// MarshalRequest is the body of POST /api/v1/marshal. Empty format
// settings fall back to the service defaults.
type MarshalRequest struct {
	Fields    []string       `json:"fields" validate:"required,min=1,dive,required"`
	Payload   map[string]any `json:"payload" validate:"required"`
	Header    *record.Header `json:"header"`
	Delimiter string         `json:"delimiter"`
	Qualifier string         `json:"qualifier"`
	QuoteMode string         `json:"quote_mode" validate:"omitempty,oneof=all minimal"`
}

// MarshalResponse carries one rendered line and its header.
type MarshalResponse struct {
	Line   string        `json:"line"`
	Header record.Header `json:"header"`
}

func (a *App) handleMarshal(c *gin.Context) error {
	var req MarshalRequest
	if !httpservice.ValidateJSON(c, &req) {
		return nil
	}

	format, err := a.requestFormat(req)
	if err != nil {
		return err
	}

	extractor, err := field.NewMapExtractor(req.Fields...)
	if err != nil {
		return err
	}
	m, err := marshaller.New[map[string]any](extractor,
		marshaller.WithLogger(httpservice.GetLogger(c)),
		marshaller.WithFormat(a.format),
	)
	if err != nil {
		return err
	}

	header := record.NewHeader(1, export.DefaultSource)
	if req.Header != nil {
		header = *req.Header
	}

	out, err := m.MarshalWith(format, record.New(header, req.Payload))
	if err != nil {
		return err
	}

	httpservice.SuccessResponse(c, MarshalResponse{Line: out.Payload, Header: out.Header})
	return nil
}

func (a *App) requestFormat(req MarshalRequest) (marshaller.Format, error) {
	format := a.format
	if req.Delimiter != "" {
		r, err := config.ParseRune("delimiter", req.Delimiter)
		if err != nil {
			return format, err
		}
		format = format.WithDelimiter(r)
	}
	if req.Qualifier != "" {
		r, err := config.ParseRune("qualifier", req.Qualifier)
		if err != nil {
			return format, err
		}
		format = format.WithQualifier(r)
	}
	if req.QuoteMode != "" {
		mode, err := marshaller.ParseQuoteMode(req.QuoteMode)
		if err != nil {
			return format, err
		}
		format = format.WithQuoteMode(mode)
	}
	return format, nil
}

func (a *App) handleExport(c *gin.Context) error {
	if a.exporter == nil {
		return errors.NewServiceUnavailableError("exports are not configured", nil)
	}

	var req export.Request
	if !httpservice.ValidateJSON(c, &req) {
		return nil
	}

	logger := httpservice.GetLogger(c)
	logger.Info("Export requested",
		logging.NewField("source", req.Source),
		logging.NewField("records", len(req.Records)),
	)

	result, err := a.exporter.Export(c.Request.Context(), req)
	if err != nil {
		return err
	}

	httpservice.CreatedResponse(c, result)
	return nil
}

// Package marshaller renders records as delimited, qualified CSV lines.
//
// A Marshaller pairs a field.Extractor with a Format. Marshal extracts the
// payload's field values, renders them as a single line and returns a
// StringRecord carrying the original header. Lines never end with a
// terminator; csvutil.LineWriter (or any other writer) appends one.
//
//	m, err := marshaller.NewForStruct[Person]("FirstName", "LastName", "Team")
//	out, err := m.Marshal(record.New(header, person))
//	// out.Payload == `"John","Doe, Jr.","NY ""Yankees"""`
//
// The format of a Marshaller may be changed with SetDelimiter and
// SetQualifier while other goroutines marshal; each call uses one
// consistent snapshot. MarshalWith takes the format per call instead.
package marshaller

import (
	"reflect"
	"sync"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
	"github.com/yourorg/csv-marshal-kit/pkg/field"
	"github.com/yourorg/csv-marshal-kit/pkg/logging"
	"github.com/yourorg/csv-marshal-kit/pkg/record"
)

// Option configures a Marshaller.
type Option func(*options)

type options struct {
	logger logging.Logger
	format Format
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFormat replaces the default format.
func WithFormat(format Format) Option {
	return func(o *options) {
		o.format = format
	}
}

// Marshaller converts Record[P] values into StringRecords.
type Marshaller[P any] struct {
	extractor field.Extractor[P]
	logger    logging.Logger

	mu     sync.RWMutex
	format Format
}

// New creates a Marshaller using extractor and the default format.
func New[P any](extractor field.Extractor[P], opts ...Option) (*Marshaller[P], error) {
	if isNil(extractor) {
		return nil, errors.NewInvalidArgumentError("field extractor must not be nil")
	}

	o := options{
		logger: logging.NewNopLogger(),
		format: DefaultFormat(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.format.Validate(); err != nil {
		return nil, err
	}

	o.logger.Debug("Record marshaller created",
		logging.NewField("delimiter", string(o.format.Delimiter)),
		logging.NewField("qualifier", string(o.format.Qualifier)),
		logging.NewField("quote_mode", o.format.QuoteMode.String()),
	)

	return &Marshaller[P]{
		extractor: extractor,
		logger:    o.logger,
		format:    o.format,
	}, nil
}

// NewForStruct creates a Marshaller extracting the named struct fields of P,
// in order. See field.NewStructExtractor for name resolution.
func NewForStruct[P any](fields ...string) (*Marshaller[P], error) {
	extractor, err := field.NewStructExtractor[P](fields...)
	if err != nil {
		return nil, err
	}
	return New[P](extractor)
}

func isNil(extractor any) bool {
	if extractor == nil {
		return true
	}
	v := reflect.ValueOf(extractor)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map:
		return v.IsNil()
	}
	return false
}

// SetDelimiter changes the delimiter used by subsequent Marshal calls.
func (m *Marshaller[P]) SetDelimiter(delimiter rune) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.format.WithDelimiter(delimiter)
	if err := next.Validate(); err != nil {
		return err
	}
	m.format = next
	return nil
}

// SetQualifier changes the qualifier used by subsequent Marshal calls.
func (m *Marshaller[P]) SetQualifier(qualifier rune) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.format.WithQualifier(qualifier)
	if err := next.Validate(); err != nil {
		return err
	}
	m.format = next
	return nil
}

// Format returns the current format.
func (m *Marshaller[P]) Format() Format {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.format
}

// Marshal renders rec with the current format.
func (m *Marshaller[P]) Marshal(rec record.Record[P]) (record.StringRecord, error) {
	return m.marshal(m.Format(), rec)
}

// MarshalWith renders rec with format, leaving the Marshaller's own format
// untouched.
func (m *Marshaller[P]) MarshalWith(format Format, rec record.Record[P]) (record.StringRecord, error) {
	if err := format.Validate(); err != nil {
		return record.StringRecord{}, err
	}
	return m.marshal(format, rec)
}

func (m *Marshaller[P]) marshal(format Format, rec record.Record[P]) (record.StringRecord, error) {
	values, err := m.extractor.ExtractFields(rec.Payload)
	if err != nil {
		m.logger.Debug("Field extraction failed",
			logging.NewField("record", rec.Header.Number),
			logging.NewField("error", err),
		)
		return record.StringRecord{}, err
	}

	line, err := format.FormatLine(values)
	if err != nil {
		m.logger.Debug("Line rendering failed",
			logging.NewField("record", rec.Header.Number),
			logging.NewField("error", err),
		)
		return record.StringRecord{}, err
	}

	return record.NewStringRecord(rec.Header, line), nil
}

// Package record holds the data model that flows between extractors,
// marshallers and line writers.
package record

import (
	"fmt"
	"time"
)

// Header is metadata about a record. Marshallers pass it through unchanged.
type Header struct {
	Number       int64     `json:"number"`
	Source       string    `json:"source,omitempty"`
	CreationDate time.Time `json:"creation_date"`
	Scanned      bool      `json:"scanned,omitempty"`
}

// NewHeader creates a header stamped with the current time.
func NewHeader(number int64, source string) Header {
	return Header{
		Number:       number,
		Source:       source,
		CreationDate: time.Now().UTC(),
	}
}

func (h Header) String() string {
	return fmt.Sprintf("Header{number=%d, source=%q, creationDate=%s, scanned=%t}",
		h.Number, h.Source, h.CreationDate.Format(time.RFC3339), h.Scanned)
}

// Record pairs a header with a payload.
type Record[P any] struct {
	Header  Header
	Payload P
}

// New creates a record.
func New[P any](header Header, payload P) Record[P] {
	return Record[P]{Header: header, Payload: payload}
}

// StringRecord is a record whose payload is a rendered line of text.
type StringRecord = Record[string]

// NewStringRecord creates a StringRecord.
func NewStringRecord(header Header, payload string) StringRecord {
	return StringRecord{Header: header, Payload: payload}
}

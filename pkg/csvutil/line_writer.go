package csvutil

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/yourorg/csv-marshal-kit/pkg/record"
)

const (
	// LF terminates lines with "\n".
	LF = "\n"
	// CRLF terminates lines with "\r\n".
	CRLF = "\r\n"
)

// LineWriter writes pre-rendered lines, appending the line terminator the
// marshallers leave out. It is safe for concurrent use.
type LineWriter struct {
	mu         sync.Mutex
	writer     *bufio.Writer
	terminator string
	count      int
}

// NewLineWriter creates a LineWriter. An empty terminator means LF.
func NewLineWriter(w io.Writer, terminator string) *LineWriter {
	if terminator == "" {
		terminator = LF
	}
	return &LineWriter{
		writer:     bufio.NewWriter(w),
		terminator: terminator,
	}
}

// WriteRecord writes the payload of rec followed by the terminator.
func (w *LineWriter) WriteRecord(rec record.StringRecord) error {
	return w.WriteLine(rec.Payload)
}

// WriteLine writes line followed by the terminator.
func (w *LineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.writer.WriteString(line); err != nil {
		return fmt.Errorf("failed to write line %d: %w", w.count+1, err)
	}
	if _, err := w.writer.WriteString(w.terminator); err != nil {
		return fmt.Errorf("failed to write line %d: %w", w.count+1, err)
	}
	w.count++
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Flush()
}

// Count returns the number of lines written.
func (w *LineWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

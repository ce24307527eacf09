package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParserConfig configures CSV parsing behavior. The qualifier is always the
// double quote.
type ParserConfig struct {
	Comma      rune
	LazyQuotes bool
}

// Parser reads lines rendered by the marshaller back into field values.
type Parser struct {
	config ParserConfig
}

// NewParser creates a new CSV parser. A zero Comma means ','.
func NewParser(config ParserConfig) *Parser {
	if config.Comma == 0 {
		config.Comma = ','
	}
	return &Parser{
		config: config,
	}
}

func (p *Parser) newReader(r io.Reader) *csv.Reader {
	csvReader := csv.NewReader(r)
	csvReader.Comma = p.config.Comma
	csvReader.LazyQuotes = p.config.LazyQuotes
	csvReader.FieldsPerRecord = -1
	return csvReader
}

// ParseLine parses exactly one record. Field values are returned as read,
// without trimming. An empty line has no fields.
func (p *Parser) ParseLine(line string) ([]string, error) {
	csvReader := p.newReader(strings.NewReader(line))

	row, err := csvReader.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse line: %w", err)
	}

	if _, err := csvReader.Read(); err != io.EOF {
		return nil, fmt.Errorf("line holds more than one record")
	}
	return row, nil
}

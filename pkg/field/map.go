package field

import (
	"fmt"
	"strings"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

// MapExtractor extracts values from decoded JSON objects by key.
type MapExtractor struct {
	names []string
}

// NewMapExtractor creates an extractor for the given keys, in order.
// A key containing dots falls back to a walk through nested objects when
// the payload has no key with that exact name.
func NewMapExtractor(names ...string) (*MapExtractor, error) {
	if len(names) == 0 {
		return nil, errors.NewInvalidArgumentError("at least one field name is required")
	}
	for _, name := range names {
		if name == "" {
			return nil, errors.NewInvalidArgumentError("field names must not be empty")
		}
	}
	return &MapExtractor{names: append([]string(nil), names...)}, nil
}

// Fields returns the extracted keys, in order.
func (e *MapExtractor) Fields() []string {
	return append([]string(nil), e.names...)
}

// ExtractFields implements Extractor.
func (e *MapExtractor) ExtractFields(payload map[string]any) ([]any, error) {
	if payload == nil {
		return nil, errors.NewExtractionError("", "payload is nil", nil)
	}

	values := make([]any, len(e.names))
	for i, name := range e.names {
		v, ok := lookup(payload, name)
		if !ok {
			return nil, errors.NewExtractionError(name, fmt.Sprintf("missing field %q", name), nil)
		}
		values[i] = v
	}
	return values, nil
}

func lookup(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(name, ".")
	if !found {
		return nil, false
	}
	nested, ok := m[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}

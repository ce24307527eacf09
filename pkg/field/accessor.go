package field

import (
	"fmt"
	"sort"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

// Accessor reads one field from a payload.
type Accessor[P any] func(payload P) (any, error)

// Accessors is a registry of named field accessors for a payload type.
type Accessors[P any] struct {
	byName map[string]Accessor[P]
	err    error
}

// NewAccessors creates an empty registry.
func NewAccessors[P any]() *Accessors[P] {
	return &Accessors[P]{byName: make(map[string]Accessor[P])}
}

// Register adds an accessor that cannot fail.
func (a *Accessors[P]) Register(name string, fn func(P) any) *Accessors[P] {
	if fn == nil {
		return a.RegisterAccessor(name, nil)
	}
	return a.RegisterAccessor(name, func(p P) (any, error) {
		return fn(p), nil
	})
}

// RegisterAccessor adds an accessor that may fail. The first registration
// problem is kept and reported by Extractor.
func (a *Accessors[P]) RegisterAccessor(name string, fn Accessor[P]) *Accessors[P] {
	if a.err != nil {
		return a
	}
	switch {
	case name == "":
		a.err = errors.NewInvalidArgumentError("accessor name must not be empty")
	case fn == nil:
		a.err = errors.NewInvalidArgumentError(fmt.Sprintf("accessor %q must not be nil", name))
	default:
		if _, exists := a.byName[name]; exists {
			a.err = errors.NewInvalidArgumentError(fmt.Sprintf("accessor %q registered twice", name))
			return a
		}
		a.byName[name] = fn
	}
	return a
}

// Names returns the registered field names, sorted.
func (a *Accessors[P]) Names() []string {
	names := make([]string, 0, len(a.byName))
	for name := range a.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extractor selects the named accessors, in order.
func (a *Accessors[P]) Extractor(names ...string) (*AccessorExtractor[P], error) {
	if a.err != nil {
		return nil, a.err
	}
	if len(names) == 0 {
		return nil, errors.NewInvalidArgumentError("at least one field name is required")
	}

	selected := make([]Accessor[P], len(names))
	for i, name := range names {
		fn, ok := a.byName[name]
		if !ok {
			return nil, errors.NewInvalidArgumentError(fmt.Sprintf("no accessor registered for field %q", name))
		}
		selected[i] = fn
	}

	return &AccessorExtractor[P]{
		names:     append([]string(nil), names...),
		accessors: selected,
	}, nil
}

// AccessorExtractor extracts fields through registered accessors.
type AccessorExtractor[P any] struct {
	names     []string
	accessors []Accessor[P]
}

// Fields returns the extracted field names, in order.
func (e *AccessorExtractor[P]) Fields() []string {
	return append([]string(nil), e.names...)
}

// ExtractFields implements Extractor.
func (e *AccessorExtractor[P]) ExtractFields(payload P) ([]any, error) {
	values := make([]any, len(e.accessors))
	for i, fn := range e.accessors {
		v, err := fn(payload)
		if err != nil {
			if errors.IsCode(err, errors.ErrorCodeExtraction) {
				return nil, err
			}
			return nil, errors.NewExtractionError(e.names[i], fmt.Sprintf("cannot read field %q", e.names[i]), err)
		}
		values[i] = v
	}
	return values, nil
}

package field

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

// TagName is the struct tag consulted before Go field names.
const TagName = "csv"

// StructExtractor extracts exported struct fields by name. Field paths are
// resolved once, when the extractor is created.
type StructExtractor[P any] struct {
	names []string
	paths [][]int
}

// NewStructExtractor resolves names against P, which must be a struct or a
// pointer to one. A name matches a csv tag or an exported field name;
// dotted names address nested structs ("Address.City").
func NewStructExtractor[P any](names ...string) (*StructExtractor[P], error) {
	t := reflect.TypeOf((*P)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("type %s is not a struct", t))
	}
	if len(names) == 0 {
		return nil, errors.NewInvalidArgumentError("at least one field name is required")
	}

	paths := make([][]int, len(names))
	for i, name := range names {
		path, err := resolvePath(t, name)
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}

	return &StructExtractor[P]{
		names: append([]string(nil), names...),
		paths: paths,
	}, nil
}

func resolvePath(root reflect.Type, name string) ([]int, error) {
	var path []int
	cur := root
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return nil, errors.NewInvalidArgumentError(fmt.Sprintf("invalid field name %q", name))
		}
		for cur.Kind() == reflect.Pointer {
			cur = cur.Elem()
		}
		if cur.Kind() != reflect.Struct {
			return nil, errors.NewInvalidArgumentError(fmt.Sprintf("field %q: %s is not a struct", name, cur))
		}

		sf, ok := lookupField(cur, part)
		if !ok {
			return nil, errors.NewInvalidArgumentError(fmt.Sprintf("type %s has no field %q", root, name))
		}

		// every hop of a promoted field must be exported to be readable
		hop := cur
		for _, idx := range sf.Index {
			for hop.Kind() == reflect.Pointer {
				hop = hop.Elem()
			}
			f := hop.Field(idx)
			if !f.IsExported() {
				return nil, errors.NewInvalidArgumentError(fmt.Sprintf("field %q of %s is not exported", name, root))
			}
			hop = f.Type
		}

		path = append(path, sf.Index...)
		cur = sf.Type
	}
	return path, nil
}

func lookupField(t reflect.Type, name string) (reflect.StructField, bool) {
	for _, sf := range reflect.VisibleFields(t) {
		tag, _, _ := strings.Cut(sf.Tag.Get(TagName), ",")
		if tag == name {
			return sf, true
		}
	}
	return t.FieldByName(name)
}

// Fields returns the extracted field names, in order.
func (e *StructExtractor[P]) Fields() []string {
	return append([]string(nil), e.names...)
}

// ExtractFields implements Extractor.
func (e *StructExtractor[P]) ExtractFields(payload P) ([]any, error) {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errors.NewExtractionError("", "payload is nil", nil)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, errors.NewExtractionError("", "payload is nil", nil)
	}

	values := make([]any, len(e.paths))
	for i, path := range e.paths {
		f := v
		for _, idx := range path {
			for f.Kind() == reflect.Pointer {
				if f.IsNil() {
					return nil, errors.NewExtractionError(e.names[i],
						fmt.Sprintf("cannot read field %q through a nil pointer", e.names[i]), nil)
				}
				f = f.Elem()
			}
			f = f.Field(idx)
		}
		values[i] = f.Interface()
	}
	return values, nil
}

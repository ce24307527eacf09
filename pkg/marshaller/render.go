package marshaller

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

// ErrUnsupportedValue is wrapped by FORMATTING_FAILURE errors for values
// that have no text form (functions, channels, unsafe pointers).
var ErrUnsupportedValue = stderrors.New("unsupported field value")

// FormatLine renders values as one line: fields separated by the delimiter,
// quoted according to the quote mode, embedded qualifiers doubled. No
// terminator is appended.
func (f Format) FormatLine(values []any) (string, error) {
	var b strings.Builder
	for i, v := range values {
		text, err := toText(v)
		if err != nil {
			return "", errors.NewFormattingError(i, fmt.Sprintf("cannot render field %d of type %T", i, v), err)
		}
		if i > 0 {
			b.WriteRune(f.Delimiter)
		}
		f.writeField(&b, text, i == 0)
	}
	return b.String(), nil
}

func (f Format) writeField(b *strings.Builder, s string, first bool) {
	if !f.needsQuotes(s, first) {
		b.WriteString(s)
		return
	}
	// Bytes are copied as given, including invalid UTF-8.
	q := string(f.Qualifier)
	b.WriteString(q)
	b.WriteString(strings.ReplaceAll(s, q, q+q))
	b.WriteString(q)
}

func (f Format) needsQuotes(s string, first bool) bool {
	if f.QuoteMode == QuoteAll {
		return true
	}
	if s == "" {
		return first
	}
	if s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return true
	}
	return strings.ContainsAny(s, "\r\n") ||
		strings.Contains(s, string(f.Delimiter)) ||
		strings.Contains(s, string(f.Qualifier))
}

func toText(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case *time.Time:
		if x == nil {
			return "", nil
		}
		return x.Format(time.RFC3339Nano), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", nil
	}

	switch x := v.(type) {
	case fmt.Stringer:
		return x.String(), nil
	case error:
		return x.Error(), nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return toText(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return "", ErrUnsupportedValue
	}
	return fmt.Sprint(v), nil
}

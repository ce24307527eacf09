package marshaller

import (
	stderrors "errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/yourorg/csv-marshal-kit/pkg/errors"
)

const (
	// DefaultDelimiter separates fields.
	DefaultDelimiter = ','
	// DefaultQualifier wraps fields.
	DefaultQualifier = '"'
)

// QuoteMode selects which fields are wrapped in the qualifier.
type QuoteMode int

const (
	// QuoteAll wraps every field.
	QuoteAll QuoteMode = iota
	// QuoteMinimal wraps only fields that would otherwise be ambiguous:
	// those containing the delimiter, the qualifier, CR or LF, those with
	// leading or trailing blanks, and an empty first field.
	QuoteMinimal
)

func (q QuoteMode) String() string {
	switch q {
	case QuoteAll:
		return "all"
	case QuoteMinimal:
		return "minimal"
	default:
		return fmt.Sprintf("QuoteMode(%d)", int(q))
	}
}

// ParseQuoteMode parses "all" or "minimal".
func ParseQuoteMode(s string) (QuoteMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return QuoteAll, nil
	case "minimal":
		return QuoteMinimal, nil
	default:
		return QuoteAll, errors.NewInvalidArgumentError(fmt.Sprintf("unknown quote mode %q", s))
	}
}

// Format describes how extracted values are rendered. It deliberately has
// no record separator: lines never carry a terminator.
type Format struct {
	Delimiter rune      `validate:"required,validrune,ne=10,ne=13"`
	Qualifier rune      `validate:"required,validrune,ne=10,ne=13,nefield=Delimiter"`
	QuoteMode QuoteMode `validate:"oneof=0 1"`
}

// DefaultFormat returns a comma-delimited, double-quoted, quote-all format.
func DefaultFormat() Format {
	return Format{
		Delimiter: DefaultDelimiter,
		Qualifier: DefaultQualifier,
		QuoteMode: QuoteAll,
	}
}

// WithDelimiter returns a copy of f using delimiter.
func (f Format) WithDelimiter(delimiter rune) Format {
	f.Delimiter = delimiter
	return f
}

// WithQualifier returns a copy of f using qualifier.
func (f Format) WithQualifier(qualifier rune) Format {
	f.Qualifier = qualifier
	return f
}

// WithQuoteMode returns a copy of f using mode.
func (f Format) WithQuoteMode(mode QuoteMode) Format {
	f.QuoteMode = mode
	return f
}

func (f Format) String() string {
	return fmt.Sprintf("Format{delimiter=%q, qualifier=%q, quoteMode=%s}", f.Delimiter, f.Qualifier, f.QuoteMode)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// U+FFFD is rejected too: it is what invalid input decodes to.
	_ = v.RegisterValidation("validrune", func(fl validator.FieldLevel) bool {
		r := rune(fl.Field().Int())
		return utf8.ValidRune(r) && r != utf8.RuneError
	})
	return v
}

// Validate reports an INVALID_ARGUMENT error when the format could not
// produce a single unambiguous line.
func (f Format) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewInvalidArgumentErrorWithErr("invalid format", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s must be set", strings.ToLower(fe.Field())))
		case "validrune":
			problems = append(problems, fmt.Sprintf("%s must be a valid unicode character", strings.ToLower(fe.Field())))
		case "ne":
			problems = append(problems, fmt.Sprintf("%s must not be a line break", strings.ToLower(fe.Field())))
		case "nefield":
			problems = append(problems, "qualifier must differ from delimiter")
		default:
			problems = append(problems, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return errors.NewInvalidArgumentErrorWithErr("invalid format: "+strings.Join(problems, "; "), err)
}

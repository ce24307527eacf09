// Package field extracts ordered field values from record payloads.
//
// An Extractor turns one payload into the values of the fields it was
// configured with, in order. Three named-field strategies are provided:
// AccessorExtractor (accessors registered explicitly per type),
// StructExtractor (exported struct fields resolved once by name or csv tag)
// and MapExtractor (keys of decoded JSON objects).
//
// Extractors report read failures as EXTRACTION_FAILURE AppErrors.
package field

// Extractor produces the ordered field values of a payload.
type Extractor[P any] interface {
	ExtractFields(payload P) ([]any, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc[P any] func(payload P) ([]any, error)

// ExtractFields calls f(payload).
func (f ExtractorFunc[P]) ExtractFields(payload P) ([]any, error) {
	return f(payload)
}

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	// ErrorCodeInvalidArgument is returned when a constructor or setter receives an unusable argument.
	ErrorCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrorCodeExtraction is returned by field extractors that cannot read a field from a payload.
	ErrorCodeExtraction ErrorCode = "EXTRACTION_FAILURE"
	// ErrorCodeFormatting is returned when extracted values cannot be rendered as a CSV line.
	ErrorCodeFormatting ErrorCode = "FORMATTING_FAILURE"
	// ErrorCodeInternal represents an internal server error.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeBadRequest represents a bad request error.
	ErrorCodeBadRequest ErrorCode = "BAD_REQUEST"
	// ErrorCodeValidation represents a request validation error.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeServiceUnavailable represents a failing downstream dependency.
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with code, message, and HTTP status.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Err        error
	Details    map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAppErrorWithErr creates a new application error with an underlying error.
func NewAppErrorWithErr(code ErrorCode, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToErrorResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// ToHTTPStatus maps an error code to HTTP status code.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrorCodeInvalidArgument, ErrorCodeBadRequest, ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeExtraction:
		return http.StatusUnprocessableEntity
	case ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeFormatting, ErrorCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts a standard error to an AppError.
// An AppError anywhere in the chain is returned as-is; anything else is
// wrapped as an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewAppErrorWithErr(
		ErrorCodeInternal,
		"An internal error occurred",
		http.StatusInternalServerError,
		err,
	)
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// NewInvalidArgumentError creates an invalid argument error.
func NewInvalidArgumentError(message string) *AppError {
	return NewAppError(ErrorCodeInvalidArgument, message, ToHTTPStatus(ErrorCodeInvalidArgument))
}

// NewInvalidArgumentErrorWithErr creates an invalid argument error wrapping err.
func NewInvalidArgumentErrorWithErr(message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeInvalidArgument, message, ToHTTPStatus(ErrorCodeInvalidArgument), err)
}

// NewExtractionError creates an extraction failure for the named field.
func NewExtractionError(field, message string, err error) *AppError {
	appErr := NewAppErrorWithErr(ErrorCodeExtraction, message, ToHTTPStatus(ErrorCodeExtraction), err)
	if field != "" {
		appErr.Details = map[string]interface{}{"field": field}
	}
	return appErr
}

// NewFormattingError creates a formatting failure for the field at index.
func NewFormattingError(index int, message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeFormatting, message, ToHTTPStatus(ErrorCodeFormatting), err).
		WithDetails(map[string]interface{}{"index": index})
}

// NewBadRequestError creates a bad request error.
func NewBadRequestError(message string) *AppError {
	return NewAppError(ErrorCodeBadRequest, message, http.StatusBadRequest)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternal, message, http.StatusInternalServerError)
}

// NewInternalErrorWithErr creates an internal error wrapping err.
func NewInternalErrorWithErr(message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeInternal, message, http.StatusInternalServerError, err)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
}

// NewServiceUnavailableError creates a service unavailable error wrapping err.
func NewServiceUnavailableError(message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeServiceUnavailable, message, http.StatusServiceUnavailable, err)
}

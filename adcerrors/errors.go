package adcerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrRequest indicates a client-facing digestion failure.
	ErrRequest = errors.New("request error")

	// ErrNotFound indicates a requested record is absent.
	ErrNotFound = errors.New("not found")

	// ErrSchemaCompile indicates a schema document failed to compile.
	ErrSchemaCompile = errors.New("schema compile error")

	// ErrFetch indicates a remote fetch failure.
	ErrFetch = errors.New("fetch error")

	// ErrStore indicates a persistence failure.
	ErrStore = errors.New("store error")
)

// RequestError represents a client-facing digestion failure. It carries a
// numeric status suitable for direct HTTP response mapping, a single
// human-readable message, and optionally a short list of formatted
// sub-errors (schema validation failures only).
type RequestError struct {
	// Status is the HTTP-equivalent status code (400, 404, 422, ...)
	Status int
	// Message is the single top-level human-readable message
	Message string
	// Errors is a bounded list of formatted sub-errors (may be nil)
	Errors []string
	// Cause is the underlying error, if any
	Cause error
}

// NewRequestError creates a RequestError with the given status and message.
func NewRequestError(status int, message string) *RequestError {
	return &RequestError{Status: status, Message: message}
}

// Error returns a human-readable error message.
func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%d: %s", e.Status, e.Message)
	for _, sub := range e.Errors {
		msg += ": " + sub
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequest
}

// NotFoundError represents an absent job record or data-store record.
// Callers treat this distinctly from other failures, e.g. to initialize
// state on first run.
type NotFoundError struct {
	// Kind identifies what was looked up ("task", "record", ...)
	Kind string
	// Name is the identifier that was not found
	Name string
	// Message provides additional context, if any
	Message string
}

// Error returns a human-readable error message.
func (e *NotFoundError) Error() string {
	msg := "not found"
	if e.Kind != "" {
		msg = e.Kind + " not found"
	}
	if e.Name != "" {
		msg += ": " + e.Name
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap returns nil as NotFoundError has no underlying cause.
func (e *NotFoundError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SchemaCompileError represents a malformed schema document or an
// unresolvable $ref. These are fatal initialization errors.
type SchemaCompileError struct {
	// SchemaID is the $id of the offending schema document
	SchemaID string
	// Ref is the unresolvable reference, if the failure is a bad $ref
	Ref string
	// Message describes the compilation failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaCompileError) Error() string {
	msg := "schema compile error"
	if e.SchemaID != "" {
		msg += " in " + e.SchemaID
	}
	if e.Ref != "" {
		msg += ": unresolvable $ref " + e.Ref
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaCompileError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaCompileError) Is(target error) bool {
	return target == ErrSchemaCompile
}

// FetchError represents a failure to retrieve remote policy or
// certificate content.
type FetchError struct {
	// URL is the remote location that failed to fetch
	URL string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FetchError) Error() string {
	msg := "fetch error"
	if e.URL != "" {
		msg += ": " + e.URL
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// StoreError represents a persistence failure other than "not found".
type StoreError struct {
	// Op is the failed operation ("save" or "load")
	Op string
	// Record is the record name involved
	Record string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *StoreError) Error() string {
	msg := "store error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Record != "" {
		msg += " " + e.Record
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

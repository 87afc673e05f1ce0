package adcerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestError(t *testing.T) {
	cause := errors.New("bad pointer")
	err := &RequestError{
		Status:  422,
		Message: "declaration is invalid",
		Errors:  []string{"/t1/app/pool: reference not found"},
		Cause:   cause,
	}

	assert.Equal(t, "422: declaration is invalid: /t1/app/pool: reference not found: bad pointer", err.Error())
	assert.True(t, errors.Is(err, ErrRequest))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestNewRequestError(t *testing.T) {
	err := NewRequestError(400, "id is required")
	assert.Equal(t, 400, err.Status)
	assert.Equal(t, "400: id is required", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Kind: "task", Name: "abc-123"}
	assert.Equal(t, "task not found: abc-123", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, errors.Unwrap(err))

	bare := &NotFoundError{}
	assert.Equal(t, "not found", bare.Error())
}

func TestSchemaCompileError(t *testing.T) {
	err := &SchemaCompileError{
		SchemaID: "urn:adc:schema:core",
		Ref:      "#/definitions/Missing",
		Message:  "reference does not resolve",
	}
	assert.Equal(t, "schema compile error in urn:adc:schema:core: unresolvable $ref #/definitions/Missing: reference does not resolve", err.Error())
	assert.True(t, errors.Is(err, ErrSchemaCompile))
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &FetchError{URL: "https://example.com/rule.tcl", Cause: cause}
	assert.Equal(t, "fetch error: https://example.com/rule.tcl: connection refused", err.Error())
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("disk full")
	err := &StoreError{Op: "save", Record: "task-records", Cause: cause}
	assert.Equal(t, "store error: save task-records: disk full", err.Error())
	assert.True(t, errors.Is(err, ErrStore))
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	inner := &RequestError{Status: 404, Message: "no such tenant"}
	wrapped := fmt.Errorf("digesting declaration: %w", inner)

	var reqErr *RequestError
	require.True(t, errors.As(wrapped, &reqErr))
	assert.Equal(t, 404, reqErr.Status)
	assert.True(t, errors.Is(wrapped, ErrRequest))
}

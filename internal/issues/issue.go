// Package issues provides a unified issue type for schema validation and
// digestion problems.
package issues

import (
	"fmt"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/internal/severity"
)

// Issue represents a single problem found during schema validation or
// digestion.
type Issue struct {
	// Instance is the JSON pointer to the problematic declaration location
	// (e.g. "/t1/app/pool/members/0")
	Instance string
	// Schema is the JSON pointer to the schema keyword that failed
	// (empty for issues not raised by schema validation)
	Schema string
	// Keyword is the schema keyword that failed ("type", "enum", "format", ...)
	Keyword string
	// Message is a human-readable description of the issue
	Message string
	// Severity indicates the severity level of the issue
	Severity severity.Severity
	// Value is the problematic value (optional)
	Value any
}

// String returns a formatted string representation of the issue in the
// shape "<instance>: <message>" with the failing keyword appended when known.
func (i Issue) String() string {
	instance := i.Instance
	if instance == "" {
		instance = "/"
	}
	msg := fmt.Sprintf("%s: %s", instance, i.Message)
	if i.Keyword != "" {
		msg += fmt.Sprintf(" (keyword: %s)", i.Keyword)
	}
	return msg
}

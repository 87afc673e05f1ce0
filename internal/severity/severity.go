// Package severity provides severity level constants and utilities
// for issues reported by the schema and digest packages.
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error
package severity

// Severity indicates the severity level of an issue found during schema
// validation or digestion.
type Severity int

const (
	// SeverityError indicates a violation that makes the declaration invalid.
	SeverityError Severity = iota

	// SeverityWarning indicates a condition that does not prevent
	// processing but should be surfaced to the caller.
	SeverityWarning

	// SeverityInfo indicates informational messages about processing choices.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

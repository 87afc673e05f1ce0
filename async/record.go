package async

// Status is the lifecycle state of a task record.
type Status string

const (
	// StatusPending marks a task whose declaration is still being applied
	StatusPending Status = "pending"
	// StatusComplete marks a finished task with stored results
	StatusComplete Status = "complete"
	// StatusCancelled marks a task orphaned by a process restart
	StatusCancelled Status = "cancelled"
)

// Record is one stored task. Timestamp is epoch milliseconds so records
// sort and age-compare without parsing.
type Record struct {
	Name          string         `json:"name"`
	Timestamp     int64          `json:"timestamp"`
	Status        Status         `json:"status"`
	DeclarationID string         `json:"declarationId,omitempty"`
	Results       []any          `json:"results,omitempty"`
	Declaration   map[string]any `json:"declaration,omitempty"`
	Traces        map[string]any `json:"traces,omitempty"`
}

package async

import "context"

// selfLinkPrefix builds the client-facing link for one task.
const selfLinkPrefix = "/mgmt/shared/appsvcs/task/"

// TaskView is the client-facing rendering of one record.
type TaskView struct {
	ID          string         `json:"id"`
	SelfLink    string         `json:"selfLink"`
	Results     []any          `json:"results"`
	Declaration map[string]any `json:"declaration"`
	Traces      map[string]any `json:"traces,omitempty"`
}

// TaskList is the client-facing rendering of all records.
type TaskList struct {
	Items []TaskView `json:"items"`
}

// GetTask renders one task for clients, or a NotFoundError.
func (h *Handler) GetTask(ctx context.Context, id string) (*TaskView, error) {
	record, err := h.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	view := viewOf(*record)
	return &view, nil
}

// ListTasks renders all tasks for clients, newest first.
func (h *Handler) ListTasks(ctx context.Context) (*TaskList, error) {
	records, err := h.Records(ctx)
	if err != nil {
		return nil, err
	}
	list := &TaskList{Items: make([]TaskView, 0, len(records))}
	for _, record := range records {
		list.Items = append(list.Items, viewOf(record))
	}
	return list, nil
}

// viewOf renders a record. In-flight and cancelled tasks have no stored
// results, so they present a single synthetic message instead.
func viewOf(record Record) TaskView {
	view := TaskView{
		ID:          record.Name,
		SelfLink:    selfLinkPrefix + record.Name,
		Declaration: record.Declaration,
		Traces:      record.Traces,
	}
	switch record.Status {
	case StatusPending:
		view.Results = []any{map[string]any{"message": "in progress"}}
	case StatusCancelled:
		view.Results = []any{map[string]any{"message": "task cancelled"}}
	default:
		view.Results = record.Results
		if view.Results == nil {
			view.Results = []any{}
		}
	}
	if view.Declaration == nil {
		view.Declaration = map[string]any{}
	}
	return view
}

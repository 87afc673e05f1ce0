package async

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	adctools "github.com/F5Networks/f5-appsvcs-extension-sub010"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

const (
	// recordsKey is the store name holding the full record list
	recordsKey = "task-records"
	// retentionAge drops records older than this on any mutating call
	retentionAge = 7 * 24 * time.Hour
	// maxRetainedRecords caps non-pending records; pending records are
	// exempt so an in-flight task can never be evicted
	maxRetainedRecords = 25
)

// Handler owns the task record lifecycle. All mutating operations load
// the stored records, apply the change, run retention, and persist; GET
// operations never mutate or persist.
type Handler struct {
	mu     sync.Mutex
	store  Store
	logger adctools.Logger

	// now is replaceable in tests
	now func() time.Time

	loaded  bool
	records []Record

	// ownPending tracks pending records created by this process. A
	// pending record loaded from storage is not in this set, which marks
	// it as orphaned by a restart.
	ownPending map[string]bool
}

// NewHandler creates a Handler backed by the given store.
func NewHandler(store Store, logger adctools.Logger) *Handler {
	if logger == nil {
		logger = adctools.NopLogger{}
	}
	return &Handler{
		store:      store,
		logger:     logger,
		now:        time.Now,
		ownPending: make(map[string]bool),
	}
}

// HandleRecord dispatches one task operation by HTTP method. POST
// creates a pending record (id is the declaration id), PATCH completes
// one, DELETE removes one, GET reads one without side effects.
func (h *Handler) HandleRecord(ctx context.Context, method, id string, results []any) (*Record, error) {
	switch method {
	case http.MethodPost:
		return h.CreateTask(ctx, id)
	case http.MethodPatch:
		return h.CompleteTask(ctx, id, results, nil)
	case http.MethodDelete:
		return nil, h.RemoveTask(ctx, id)
	case http.MethodGet:
		return h.GetRecord(ctx, id)
	default:
		return nil, fmt.Errorf("async: unsupported method %q", method)
	}
}

// CreateTask appends a new pending record and returns it.
func (h *Handler) CreateTask(ctx context.Context, declarationID string) (*Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	h.cancelOrphans()

	record := Record{
		Name:          uuid.NewString(),
		Timestamp:     h.now().UnixMilli(),
		Status:        StatusPending,
		DeclarationID: declarationID,
	}
	h.ownPending[record.Name] = true
	h.records = append(h.records, record)

	h.retain()
	if err := h.persist(ctx); err != nil {
		return nil, err
	}
	h.logger.Info("task created", "task", record.Name, "declaration", declarationID)
	return &record, nil
}

// CompleteTask transitions a pending record to complete and stores its
// results and digested declaration.
func (h *Handler) CompleteTask(ctx context.Context, id string, results []any, decl map[string]any) (*Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	h.cancelOrphans()

	idx := h.find(id)
	if idx < 0 {
		return nil, &adcerrors.NotFoundError{Kind: "task", Name: id}
	}
	h.records[idx].Status = StatusComplete
	h.records[idx].Results = results
	h.records[idx].Declaration = decl
	delete(h.ownPending, id)
	record := h.records[idx]

	h.retain()
	if err := h.persist(ctx); err != nil {
		return nil, err
	}
	h.logger.Info("task completed", "task", id)
	return &record, nil
}

// RemoveTask deletes a record by name.
func (h *Handler) RemoveTask(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(ctx); err != nil {
		return err
	}
	h.cancelOrphans()

	idx := h.find(id)
	if idx < 0 {
		return &adcerrors.NotFoundError{Kind: "task", Name: id}
	}
	h.records = append(h.records[:idx], h.records[idx+1:]...)
	delete(h.ownPending, id)

	h.retain()
	if err := h.persist(ctx); err != nil {
		return err
	}
	h.logger.Info("task removed", "task", id)
	return nil
}

// GetRecord returns one record. It never mutates the stored records:
// orphaned pending records stay pending until the next mutating call.
func (h *Handler) GetRecord(ctx context.Context, id string) (*Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	idx := h.find(id)
	if idx < 0 {
		return nil, &adcerrors.NotFoundError{Kind: "task", Name: id}
	}
	record := h.records[idx]
	return &record, nil
}

// Records returns a snapshot of all records, newest first.
func (h *Handler) Records(ctx context.Context) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.load(ctx); err != nil {
		return nil, err
	}
	snapshot := make([]Record, len(h.records))
	copy(snapshot, h.records)
	return snapshot, nil
}

func (h *Handler) load(ctx context.Context) error {
	if h.loaded {
		return nil
	}
	data, err := h.store.Load(ctx, recordsKey)
	if err != nil {
		var notFound *adcerrors.NotFoundError
		if errors.As(err, &notFound) {
			h.loaded = true
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, &h.records); err != nil {
		return &adcerrors.StoreError{Op: "decode", Record: recordsKey, Cause: err}
	}
	h.loaded = true
	return nil
}

func (h *Handler) persist(ctx context.Context) error {
	data, err := json.Marshal(h.records)
	if err != nil {
		return &adcerrors.StoreError{Op: "encode", Record: recordsKey, Cause: err}
	}
	return h.store.Save(ctx, recordsKey, data)
}

func (h *Handler) find(id string) int {
	for i := range h.records {
		if h.records[i].Name == id {
			return i
		}
	}
	return -1
}

// cancelOrphans marks pending records this process did not create as
// cancelled. They belonged to a run that died before completing.
func (h *Handler) cancelOrphans() {
	for i := range h.records {
		if h.records[i].Status == StatusPending && !h.ownPending[h.records[i].Name] {
			h.logger.Warn("cancelling orphaned task", "task", h.records[i].Name)
			h.records[i].Status = StatusCancelled
		}
	}
}

// retain applies the retention policy: expire everything older than
// retentionAge, then cap non-pending records at maxRetainedRecords,
// keeping the newest. Pending records never count against the cap. The
// result is ordered newest first.
func (h *Handler) retain() {
	cutoff := h.now().Add(-retentionAge).UnixMilli()

	var pending, others []Record
	for _, record := range h.records {
		if record.Timestamp < cutoff {
			continue
		}
		if record.Status == StatusPending {
			pending = append(pending, record)
		} else {
			others = append(others, record)
		}
	}

	sort.SliceStable(others, func(i, j int) bool {
		return others[i].Timestamp > others[j].Timestamp
	})
	if len(others) > maxRetainedRecords {
		others = others[:maxRetainedRecords]
	}

	merged := append(pending, others...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	h.records = merged
}

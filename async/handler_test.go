package async

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

func TestHandler_Lifecycle(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(NewMemStore(), nil)

	record, err := h.CreateTask(ctx, "decl-001")
	require.NoError(t, err)
	assert.NotEmpty(t, record.Name)
	assert.Equal(t, StatusPending, record.Status)
	assert.Equal(t, "decl-001", record.DeclarationID)

	completed, err := h.CompleteTask(ctx, record.Name, []any{map[string]any{"code": 200}}, map[string]any{"class": "ADC"})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, completed.Status)
	require.Len(t, completed.Results, 1)

	fetched, err := h.GetRecord(ctx, record.Name)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, fetched.Status)

	require.NoError(t, h.RemoveTask(ctx, record.Name))
	_, err = h.GetRecord(ctx, record.Name)
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcerrors.ErrNotFound))
}

func TestHandler_HandleRecordDispatch(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(NewMemStore(), nil)

	record, err := h.HandleRecord(ctx, http.MethodPost, "decl-001", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, record.Status)

	completed, err := h.HandleRecord(ctx, http.MethodPatch, record.Name, []any{map[string]any{"code": 200}})
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, completed.Status)

	fetched, err := h.HandleRecord(ctx, http.MethodGet, record.Name, nil)
	require.NoError(t, err)
	assert.Equal(t, record.Name, fetched.Name)

	_, err = h.HandleRecord(ctx, http.MethodDelete, record.Name, nil)
	require.NoError(t, err)

	_, err = h.HandleRecord(ctx, "BREW", "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported method "BREW"`)
}

func TestHandler_CompleteUnknownTask(t *testing.T) {
	h := NewHandler(NewMemStore(), nil)
	_, err := h.CompleteTask(context.Background(), "no-such-task", nil, nil)
	require.Error(t, err)

	var notFound *adcerrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "task", notFound.Kind)
}

func TestHandler_RetentionCap(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(NewMemStore(), nil)

	base := time.Now()
	clock := base
	h.now = func() time.Time { return clock }

	var names []string
	for i := 0; i < 30; i++ {
		clock = base.Add(time.Duration(i) * time.Minute)
		record, err := h.CreateTask(ctx, "decl")
		require.NoError(t, err)
		_, err = h.CompleteTask(ctx, record.Name, nil, nil)
		require.NoError(t, err)
		names = append(names, record.Name)
	}
	clock = base.Add(31 * time.Minute)
	pending, err := h.CreateTask(ctx, "decl")
	require.NoError(t, err)

	records, err := h.Records(ctx)
	require.NoError(t, err)
	// 25 completed plus the pending one, newest first.
	require.Len(t, records, 26)
	assert.Equal(t, pending.Name, records[0].Name)
	assert.True(t, records[0].Timestamp >= records[len(records)-1].Timestamp)

	kept := map[string]bool{}
	for _, record := range records {
		kept[record.Name] = true
	}
	for _, name := range names[:5] {
		assert.False(t, kept[name], "oldest completed record %s should be evicted", name)
	}
	for _, name := range names[5:] {
		assert.True(t, kept[name])
	}
}

func TestHandler_RetentionAge(t *testing.T) {
	ctx := context.Background()
	h := NewHandler(NewMemStore(), nil)

	base := time.Now()
	clock := base
	h.now = func() time.Time { return clock }

	old, err := h.CreateTask(ctx, "decl")
	require.NoError(t, err)
	_, err = h.CompleteTask(ctx, old.Name, nil, nil)
	require.NoError(t, err)

	clock = base.Add(8 * 24 * time.Hour)
	fresh, err := h.CreateTask(ctx, "decl")
	require.NoError(t, err)

	records, err := h.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, fresh.Name, records[0].Name)
}

func TestHandler_OrphanCancellation(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	first := NewHandler(store, nil)
	orphan, err := first.CreateTask(ctx, "decl")
	require.NoError(t, err)

	// A new handler on the same store models a process restart. GET must
	// leave the orphan pending.
	second := NewHandler(store, nil)
	fetched, err := second.GetRecord(ctx, orphan.Name)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, fetched.Status)

	// The next mutating call cancels it.
	_, err = second.CreateTask(ctx, "decl-2")
	require.NoError(t, err)
	fetched, err = second.GetRecord(ctx, orphan.Name)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, fetched.Status)
}

func TestHandler_GetDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	first := NewHandler(store, nil)
	record, err := first.CreateTask(ctx, "decl")
	require.NoError(t, err)

	stored, err := store.Load(ctx, recordsKey)
	require.NoError(t, err)

	second := NewHandler(store, nil)
	_, err = second.GetRecord(ctx, record.Name)
	require.NoError(t, err)

	after, err := store.Load(ctx, recordsKey)
	require.NoError(t, err)
	assert.Equal(t, stored, after)
}

func TestHandler_PersistsAcrossHandlers(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	first := NewHandler(store, nil)
	record, err := first.CreateTask(ctx, "decl")
	require.NoError(t, err)
	_, err = first.CompleteTask(ctx, record.Name, []any{map[string]any{"code": 200}}, nil)
	require.NoError(t, err)

	second := NewHandler(store, nil)
	fetched, err := second.GetRecord(ctx, record.Name)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, fetched.Status)
	require.Len(t, fetched.Results, 1)
}

package progress_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"arqv-backend/internal/progress"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *progress.Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return progress.NewStore(client, time.Hour)
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	taskId := uuid.New()

	require.NoError(t, store.Create(ctx, taskId))

	state, err := store.Get(ctx, taskId)
	require.NoError(t, err)
	assert.Equal(t, progress.StatePending, state.State)
	assert.Equal(t, 0, state.Current)
	assert.Equal(t, progress.TotalSteps, state.Total)

	require.NoError(t, store.SetProgress(ctx, taskId, 2, "Collecting web data", "data_collection"))

	state, err = store.Get(ctx, taskId)
	require.NoError(t, err)
	assert.Equal(t, progress.StateProgress, state.State)
	assert.Equal(t, 2, state.Current)
	assert.Equal(t, "data_collection", state.Phase)

	result := json.RawMessage(`{"analysis_id":"abc"}`)
	require.NoError(t, store.SetSuccess(ctx, taskId, result))

	state, err = store.Get(ctx, taskId)
	require.NoError(t, err)
	assert.Equal(t, progress.StateSuccess, state.State)
	assert.Equal(t, progress.TotalSteps, state.Current)
	assert.JSONEq(t, string(result), string(state.Result))
}

func TestTaskFailure(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	taskId := uuid.New()

	require.NoError(t, store.Create(ctx, taskId))
	require.NoError(t, store.SetFailure(ctx, taskId, "all AI providers unavailable"))

	state, err := store.Get(ctx, taskId)
	require.NoError(t, err)
	assert.Equal(t, progress.StateFailure, state.State)
	assert.Equal(t, "error", state.Phase)
	assert.Equal(t, "all AI providers unavailable", state.Error)
}

func TestGetUnknownTask(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, progress.ErrTaskNotFound)
}

func TestActiveTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	running, finished := uuid.New(), uuid.New()
	require.NoError(t, store.Create(ctx, running))
	require.NoError(t, store.Create(ctx, finished))
	require.NoError(t, store.SetProgress(ctx, running, 3, "Processing with AI", "ai_analysis"))
	require.NoError(t, store.SetSuccess(ctx, finished, json.RawMessage(`{}`)))

	active, err := store.ActiveTasks(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, running, active[0].TaskId)
	assert.Equal(t, "ai_analysis", active[0].Phase)
}

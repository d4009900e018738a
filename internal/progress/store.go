package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	StatePending  = "PENDING"
	StateProgress = "PROGRESS"
	StateSuccess  = "SUCCESS"
	StateFailure  = "FAILURE"

	// Phase progress is reported against this fixed number of pipeline steps.
	TotalSteps = 4

	activeKey = "tasks:active"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskState struct {
	TaskId    uuid.UUID       `json:"task_id"`
	State     string          `json:"state"`
	Status    string          `json:"status"`
	Phase     string          `json:"phase,omitempty"`
	Current   int             `json:"current"`
	Total     int             `json:"total"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store keeps per-task state blobs in Redis so any API replica can answer
// status polls, plus an active-task set for the dashboard.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func taskKey(id uuid.UUID) string {
	return "task:" + id.String()
}

func (s *Store) set(ctx context.Context, state TaskState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal task state: %w", err)
	}

	if err := s.client.Set(ctx, taskKey(state.TaskId), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task state: %w", err)
	}
	return nil
}

// Create records a new PENDING task and adds it to the active set.
func (s *Store) Create(ctx context.Context, taskId uuid.UUID) error {
	now := time.Now().UTC()
	state := TaskState{
		TaskId:    taskId,
		State:     StatePending,
		Status:    "Aguardando processamento...",
		Current:   0,
		Total:     TotalSteps,
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := s.set(ctx, state); err != nil {
		return err
	}

	return s.client.SAdd(ctx, activeKey, taskId.String()).Err()
}

func (s *Store) SetProgress(ctx context.Context, taskId uuid.UUID, current int, status, phase string) error {
	state, err := s.Get(ctx, taskId)
	if err != nil {
		return err
	}

	state.State = StateProgress
	state.Current = current
	state.Total = TotalSteps
	state.Status = status
	state.Phase = phase
	state.UpdatedAt = time.Now().UTC()

	return s.set(ctx, *state)
}

func (s *Store) SetSuccess(ctx context.Context, taskId uuid.UUID, result json.RawMessage) error {
	state, err := s.Get(ctx, taskId)
	if err != nil {
		return err
	}

	state.State = StateSuccess
	state.Status = "Análise concluída com sucesso!"
	state.Current = TotalSteps
	state.Total = TotalSteps
	state.Result = result
	state.UpdatedAt = time.Now().UTC()

	if err := s.set(ctx, *state); err != nil {
		return err
	}
	return s.client.SRem(ctx, activeKey, taskId.String()).Err()
}

func (s *Store) SetFailure(ctx context.Context, taskId uuid.UUID, errMsg string) error {
	state, err := s.Get(ctx, taskId)
	if err != nil {
		return err
	}

	state.State = StateFailure
	state.Status = "Erro no processamento"
	state.Phase = "error"
	state.Error = errMsg
	state.UpdatedAt = time.Now().UTC()

	if err := s.set(ctx, *state); err != nil {
		return err
	}
	return s.client.SRem(ctx, activeKey, taskId.String()).Err()
}

func (s *Store) Get(ctx context.Context, taskId uuid.UUID) (*TaskState, error) {
	data, err := s.client.Get(ctx, taskKey(taskId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to read task state: %w", err)
	}

	var state TaskState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task state: %w", err)
	}
	return &state, nil
}

// ActiveTasks lists tasks that have not reached a terminal state. Entries
// whose state blob has expired are pruned from the set as a side effect.
func (s *Store) ActiveTasks(ctx context.Context) ([]TaskState, error) {
	ids, err := s.client.SMembers(ctx, activeKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active tasks: %w", err)
	}

	var states []TaskState
	for _, raw := range ids {
		taskId, err := uuid.Parse(raw)
		if err != nil {
			s.client.SRem(ctx, activeKey, raw)
			continue
		}

		state, err := s.Get(ctx, taskId)
		if errors.Is(err, ErrTaskNotFound) {
			s.client.SRem(ctx, activeKey, raw)
			continue
		}
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}

	return states, nil
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

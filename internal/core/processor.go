package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arqv-backend/internal/messaging"
	"arqv-backend/internal/progress"
)

// TaskProcessor consumes analysis tasks from the queue, runs them through
// the pipeline, and reports phase progress to the status store.
type TaskProcessor struct {
	pipeline *Pipeline
	progress *progress.Store
	reciever messaging.Reciever
}

func NewTaskProcessor(pipeline *Pipeline, progressStore *progress.Store, reciever messaging.Reciever) *TaskProcessor {
	return &TaskProcessor{
		pipeline: pipeline,
		progress: progressStore,
		reciever: reciever,
	}
}

func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor")

	for task := range proc.reciever.Tasks() {
		proc.ProcessTask(task)
	}
}

func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	ctx := context.Background()

	var err error
	switch task.Type() {

	case messaging.AnalysisQueue:
		var payload messaging.AnalysisTaskPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling analysis task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		if err = proc.processAnalysisTask(ctx, payload); err != nil {
			// The failure is already terminal in the status store, so the
			// message must not be redelivered.
			slog.Error("error processing analysis task", "task_id", payload.TaskId, "error", err)
			if rejectErr := task.Reject(); rejectErr != nil {
				slog.Error("error rejecting message from queue", "error", rejectErr)
			}
			return
		}

	case messaging.ApiValidationQueue:
		var payload messaging.ApiValidationPayload
		if err = json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling api validation task", "error", err)
			if err := task.Reject(); err != nil {
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		err = proc.processApiValidationTask(ctx, payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	if err != nil {
		slog.Error("error processing task", "queue", task.Type(), "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error reporting processing failure on message from queue", "error", err)
		}
	} else {
		slog.Info("successfully processed task", "queue", task.Type())
		if err := task.Ack(); err != nil {
			slog.Error("error acknowledging message from queue", "error", err)
		}
	}
}

func (proc *TaskProcessor) processAnalysisTask(ctx context.Context, payload messaging.AnalysisTaskPayload) error {
	slog.Info("processing analysis task", "task_id", payload.TaskId, "analysis_id", payload.AnalysisId)

	onPhase := func(step int, status, phase string) {
		if err := proc.progress.SetProgress(ctx, payload.TaskId, step, status, phase); err != nil {
			slog.Error("error updating task progress", "task_id", payload.TaskId, "error", err)
		}
	}

	doc, provider, research, err := proc.pipeline.Execute(ctx, payload.AnalysisId, payload.Request, payload.AttachmentContext, onPhase)
	if err != nil {
		if progressErr := proc.progress.SetFailure(ctx, payload.TaskId, err.Error()); progressErr != nil {
			slog.Error("error recording task failure", "task_id", payload.TaskId, "error", progressErr)
		}
		return err
	}

	result, err := BuildAnalysisResult(payload.AnalysisId, doc, provider, research, "async", &payload.TaskId)
	if err != nil {
		if progressErr := proc.progress.SetFailure(ctx, payload.TaskId, err.Error()); progressErr != nil {
			slog.Error("error recording task failure", "task_id", payload.TaskId, "error", progressErr)
		}
		return err
	}

	if err := proc.progress.SetSuccess(ctx, payload.TaskId, result); err != nil {
		slog.Error("error recording task success", "task_id", payload.TaskId, "error", err)
	}

	slog.Info("analysis task completed", "task_id", payload.TaskId, "analysis_id", payload.AnalysisId, "provider", provider)

	return nil
}

func (proc *TaskProcessor) processApiValidationTask(ctx context.Context, payload messaging.ApiValidationPayload) error {
	slog.Info("processing api validation task", "task_id", payload.TaskId)

	if err := proc.progress.SetProgress(ctx, payload.TaskId, 1, "Validando chaves de API...", "validation"); err != nil {
		slog.Error("error updating task progress", "task_id", payload.TaskId, "error", err)
	}

	statuses := proc.pipeline.Validate(ctx)

	result, err := json.Marshal(map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"apis":      statuses,
	})
	if err != nil {
		return fmt.Errorf("error encoding validation result: %w", err)
	}

	return proc.progress.SetSuccess(ctx, payload.TaskId, result)
}

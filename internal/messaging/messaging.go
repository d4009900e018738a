package messaging

import (
	"context"
	"time"

	"arqv-backend/pkg/api"

	"github.com/google/uuid"
)

const (
	AnalysisQueue      = "analysis_queue"
	ApiValidationQueue = "api_validation_queue"

	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5

	// A task that fails more times than this is discarded instead of requeued.
	MaxTaskRetries = 2
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

type AnalysisTaskPayload struct {
	TaskId     uuid.UUID
	AnalysisId uuid.UUID

	Request api.AnalyzeRequest

	// Extracted text from session attachments, included as prompt context.
	AttachmentContext string
}

type ApiValidationPayload struct {
	TaskId uuid.UUID
}

type Publisher interface {
	PublishAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error

	PublishApiValidationTask(ctx context.Context, payload ApiValidationPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}

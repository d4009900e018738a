package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"arqv-backend/internal/messaging"
	"arqv-backend/pkg/api"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recieveTask(t *testing.T, tasks <-chan messaging.Task) messaging.Task {
	t.Helper()

	select {
	case task := <-tasks:
		return task
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for task")
		return nil
	}
}

func TestInMemoryQueue(t *testing.T) {
	queue := messaging.NewInMemoryQueue()
	defer queue.Close()

	payload := messaging.AnalysisTaskPayload{
		TaskId:     uuid.New(),
		AnalysisId: uuid.New(),
		Request:    api.AnalyzeRequest{Segment: "digital education"},
	}
	require.NoError(t, queue.PublishAnalysisTask(context.Background(), payload))

	task := recieveTask(t, queue.Tasks())
	assert.Equal(t, messaging.AnalysisQueue, task.Type())

	var got messaging.AnalysisTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, payload, got)
	assert.NoError(t, task.Ack())
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	url := "redis://" + mr.Addr()

	publisher, err := messaging.NewRedisPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	reciever, err := messaging.NewRedisReceiver(url)
	require.NoError(t, err)
	defer reciever.Close()

	payload := messaging.AnalysisTaskPayload{
		TaskId:     uuid.New(),
		AnalysisId: uuid.New(),
		Request:    api.AnalyzeRequest{Segment: "fitness", Product: "online coaching"},
	}
	require.NoError(t, publisher.PublishAnalysisTask(context.Background(), payload))

	task := recieveTask(t, reciever.Tasks())
	assert.Equal(t, messaging.AnalysisQueue, task.Type())

	var got messaging.AnalysisTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &got))
	assert.Equal(t, payload, got)
}

func TestRedisQueueNackRequeues(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	url := "redis://" + mr.Addr()

	publisher, err := messaging.NewRedisPublisher(url)
	require.NoError(t, err)
	defer publisher.Close()

	reciever, err := messaging.NewRedisReceiver(url)
	require.NoError(t, err)
	defer reciever.Close()

	payload := messaging.ApiValidationPayload{TaskId: uuid.New()}
	require.NoError(t, publisher.PublishApiValidationTask(context.Background(), payload))

	task := recieveTask(t, reciever.Tasks())
	require.NoError(t, task.Nack())

	redelivered := recieveTask(t, reciever.Tasks())
	assert.Equal(t, messaging.ApiValidationQueue, redelivered.Type())

	var got messaging.ApiValidationPayload
	require.NoError(t, json.Unmarshal(redelivered.Payload(), &got))
	assert.Equal(t, payload.TaskId, got.TaskId)
}

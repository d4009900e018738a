package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// The broker is a pair of Redis lists, one per queue. Publishing is an LPUSH
// of a task envelope; consuming is a blocking BRPOP across both lists. This
// keeps the at-least-once semantics of the original queue without pulling in
// a full AMQP broker.

type taskEnvelope struct {
	Queue   string          `json:"queue"`
	Retries int             `json:"retries"`
	Body    json.RawMessage `json:"body"`
}

func queueKey(queue string) string {
	return "queue:" + queue
}

func connectToRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	for i := 0; i < MaxConnectRetry; i++ {
		if err = client.Ping(context.Background()).Err(); err == nil {
			slog.Info("connected to redis broker")
			return client, nil
		}
		slog.Warn("failed to connect to redis", "attempt", i+1, "max_attempts", MaxConnectRetry, "error", err)
		time.Sleep(RetryDelay)
	}

	client.Close()
	slog.Error("failed to connect to redis", "attempts", MaxConnectRetry, "error", err)
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", MaxConnectRetry, err)
}

type RedisPublisher struct {
	client     *redis.Client
	destructor sync.Once
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	client, err := connectToRedis(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisPublisher{client: client}, nil
}

func (p *RedisPublisher) publishTaskInternal(ctx context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal payload", "queue", queue, "error", err)
		return fmt.Errorf("failed to marshal %s payload: %w", queue, err)
	}

	envelope, err := json.Marshal(taskEnvelope{Queue: queue, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", queue, err)
	}

	if err := p.client.LPush(ctx, queueKey(queue), envelope).Err(); err != nil {
		slog.Error("failed to publish task", "queue", queue, "error", err)
		return fmt.Errorf("failed to publish %s: %w", queue, err)
	}

	return nil
}

func (p *RedisPublisher) PublishAnalysisTask(ctx context.Context, payload AnalysisTaskPayload) error {
	return p.publishTaskInternal(ctx, AnalysisQueue, payload)
}

func (p *RedisPublisher) PublishApiValidationTask(ctx context.Context, payload ApiValidationPayload) error {
	return p.publishTaskInternal(ctx, ApiValidationQueue, payload)
}

func (p *RedisPublisher) Close() {
	p.destructor.Do(func() {
		if err := p.client.Close(); err != nil {
			slog.Error("error closing redis publisher", "error", err)
		}
	})
}

type RedisTask struct {
	client   *redis.Client
	envelope taskEnvelope
}

func (t *RedisTask) Type() string {
	return t.envelope.Queue
}

func (t *RedisTask) Payload() []byte {
	return t.envelope.Body
}

func (t *RedisTask) Ack() error {
	// BRPOP already removed the entry, there is nothing to acknowledge.
	return nil
}

func (t *RedisTask) Nack() error {
	if t.envelope.Retries >= MaxTaskRetries {
		slog.Warn("task exceeded retry limit, discarding", "queue", t.envelope.Queue, "retries", t.envelope.Retries)
		return nil
	}

	t.envelope.Retries++
	data, err := json.Marshal(t.envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal requeued envelope: %w", err)
	}

	return t.client.LPush(context.Background(), queueKey(t.envelope.Queue), data).Err()
}

func (t *RedisTask) Reject() error {
	return nil
}

type RedisReceiver struct {
	client *redis.Client
	tasks  chan Task
	stop   chan struct{}
}

var _ Reciever = (*RedisReceiver)(nil)

func NewRedisReceiver(redisURL string) (*RedisReceiver, error) {
	client, err := connectToRedis(redisURL)
	if err != nil {
		return nil, err
	}

	c := &RedisReceiver{
		client: client,
		tasks:  make(chan Task),
		stop:   make(chan struct{}),
	}

	go c.receiveTasks()

	return c, nil
}

func (c *RedisReceiver) receiveTasks() {
	queues := []string{queueKey(AnalysisQueue), queueKey(ApiValidationQueue)}

	for {
		select {
		case <-c.stop:
			close(c.tasks)
			if err := c.client.Close(); err != nil {
				slog.Error("error closing redis receiver", "error", err)
			}
			return
		default:
		}

		res, err := c.client.BRPop(context.Background(), RetryDelay, queues...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Poll timeout, no tasks available
			}
			slog.Warn("error receiving from redis, retrying", "error", err)
			time.Sleep(RetryDelay)
			continue
		}

		// BRPOP returns [key, value].
		var envelope taskEnvelope
		if err := json.Unmarshal([]byte(res[1]), &envelope); err != nil {
			slog.Error("discarding malformed task envelope", "key", res[0], "error", err)
			continue
		}

		c.tasks <- &RedisTask{client: c.client, envelope: envelope}
	}
}

func (c *RedisReceiver) Tasks() <-chan Task {
	return c.tasks
}

func (c *RedisReceiver) Close() {
	close(c.stop)
}

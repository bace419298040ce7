package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client enqueues dashboard tasks.
type Client struct {
	client *asynq.Client
}

// NewClient returns a Client on redis. Close it when done.
func NewClient(redis asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redis)}
}

// EnqueueWarmup queues a warmup. Warmups are retried; a run may take minutes
// when every period is cold.
func (c *Client) EnqueueWarmup(ctx context.Context, payload WarmupPayload) (*asynq.TaskInfo, error) {
	task, err := NewWarmupTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
	)
}

// EnqueueBump queues a cache invalidation.
func (c *Client) EnqueueBump(ctx context.Context, payload BumpPayload) (*asynq.TaskInfo, error) {
	task, err := NewBumpTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

package asynq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	defaultMaxRetry = 10
	defaultTimeout  = 2 * time.Minute
)

// taskClient is the subset of *asynq.Client the enqueuer needs.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Enqueuer turns hooks into tasks.
type Enqueuer struct {
	client   taskClient
	maxRetry int
}

// NewEnqueuer connects an enqueuer to Redis.
func NewEnqueuer(opt asynq.RedisConnOpt) *Enqueuer {
	return newEnqueuer(asynq.NewClient(opt))
}

func newEnqueuer(c taskClient) *Enqueuer {
	return &Enqueuer{client: c, maxRetry: defaultMaxRetry}
}

// EnqueueNodeSaved queues a node upsert.
func (e *Enqueuer) EnqueueNodeSaved(ctx context.Context, id string) (string, error) {
	return e.enqueue(ctx, TypeUpdateNode, EntityPayload{ID: id})
}

// EnqueueUserSaved queues a user upsert.
func (e *Enqueuer) EnqueueUserSaved(ctx context.Context, id string) (string, error) {
	return e.enqueue(ctx, TypeUpdateUser, EntityPayload{ID: id})
}

// EnqueueNodeDeleted queues a node removal.
func (e *Enqueuer) EnqueueNodeDeleted(ctx context.Context, id string) (string, error) {
	return e.enqueue(ctx, TypeDeleteNode, EntityPayload{ID: id})
}

// EnqueueContributorsChanged queues a bulk contributor update.
func (e *Enqueuer) EnqueueContributorsChanged(ctx context.Context, nodeIDs []string) (string, error) {
	return e.enqueue(ctx, TypeBulkContributors, ContributorsPayload{NodeIDs: nodeIDs})
}

func (e *Enqueuer) enqueue(ctx context.Context, typename string, payload any) (string, error) {
	task, err := newTask(typename, payload)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.TaskID(uuid.NewString()),
		asynq.Queue(Queue),
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(defaultTimeout),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", typename, err)
	}
	return info.ID, nil
}

// Close releases the Redis connection.
func (e *Enqueuer) Close() error {
	return e.client.Close() //nolint:wrapcheck // single call site
}

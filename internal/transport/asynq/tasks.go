// Package asynq delivers entity change hooks through Redis-backed task
// queues: the HTTP layer enqueues, a worker process runs the hook.
package asynq

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeUpdateNode       = "search:update_node"
	TypeUpdateUser       = "search:update_user"
	TypeDeleteNode       = "search:delete_node"
	TypeBulkContributors = "search:bulk_contributors"
)

// Queue is the queue every hook task goes to.
const Queue = "search"

// EntityPayload names one node or user.
type EntityPayload struct {
	ID string `json:"id"`
}

// ContributorsPayload names the nodes whose contributor lists changed.
type ContributorsPayload struct {
	NodeIDs []string `json:"node_ids"`
}

func newTask(typename string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, data, opts...), nil
}

func decodePayload(t *asynq.Task, v any) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

package asynq

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/logger"
	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
)

// Hooks runs the hook behind each task.
type Hooks interface {
	NodeSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	UserSaved(ctx context.Context, id string) (hookuc.Outcome, error)
	NodeDeleted(ctx context.Context, id string) (hookuc.Outcome, error)
	ContributorsChanged(ctx context.Context, nodeIDs []string) (hookuc.Outcome, error)
}

// errNotIndexed makes asynq retry a hook whose index write failed.
var errNotIndexed = errors.New("index write failed")

// Worker processes hook tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker creates a worker bound to Redis.
func NewWorker(opt asynq.RedisConnOpt, concurrency int, hooks Hooks, log *zap.Logger) *Worker {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{Queue: 1},
		Logger:      log.Named("asynq").Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Warn("Hook task failed", zap.String("type", t.Type()), zap.Error(err))
		}),
	})
	return &Worker{server: srv, mux: NewMux(hooks, log)}
}

// Start begins processing in background goroutines.
func (w *Worker) Start() error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// NewMux routes each task type to its hook.
func NewMux(hooks Hooks, log *zap.Logger) *asynq.ServeMux {
	h := &handler{hooks: hooks, log: log}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeUpdateNode, h.entity(hooks.NodeSaved))
	mux.HandleFunc(TypeUpdateUser, h.entity(hooks.UserSaved))
	mux.HandleFunc(TypeDeleteNode, h.entity(hooks.NodeDeleted))
	mux.HandleFunc(TypeBulkContributors, h.contributors)
	return mux
}

type handler struct {
	hooks Hooks
	log   *zap.Logger
}

func (h *handler) entity(
	run func(context.Context, string) (hookuc.Outcome, error),
) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p EntityPayload
		if err := decodePayload(t, &p); err != nil {
			return err
		}
		ctx = h.taskContext(ctx, t)
		out, err := run(ctx, p.ID)
		return result(t, out, err)
	}
}

func (h *handler) contributors(ctx context.Context, t *asynq.Task) error {
	var p ContributorsPayload
	if err := decodePayload(t, &p); err != nil {
		return err
	}
	ctx = h.taskContext(ctx, t)
	out, err := h.hooks.ContributorsChanged(ctx, p.NodeIDs)
	return result(t, out, err)
}

func (h *handler) taskContext(ctx context.Context, t *asynq.Task) context.Context {
	ctx = logger.ContextWithLogger(ctx, h.log)
	fields := []zap.Field{zap.String("task_type", t.Type())}
	if id, ok := asynq.GetTaskID(ctx); ok {
		fields = append(fields, zap.String("task_id", id))
	}
	if n, ok := asynq.GetRetryCount(ctx); ok && n > 0 {
		fields = append(fields, zap.Int("retry", n))
	}
	return logger.With(ctx, fields...)
}

// result maps a hook outcome onto asynq's retry semantics: entities that
// are gone, ids that are invalid and writes refused by a disabled engine
// never succeed on retry.
func result(t *asynq.Task, out hookuc.Outcome, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidQuery):
		return fmt.Errorf("%s: %v: %w", t.Type(), err, asynq.SkipRetry)
	case err != nil:
		return fmt.Errorf("%s: %w", t.Type(), err)
	case !out.Indexed && out.Unavailable:
		return fmt.Errorf("%s: %v: %w", t.Type(), domain.ErrSearchUnavailable, asynq.SkipRetry)
	case !out.Indexed:
		return fmt.Errorf("%s: %w", t.Type(), errNotIndexed)
	default:
		return nil
	}
}

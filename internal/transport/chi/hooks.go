package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	hookuc "github.com/osfio/osfsearch/internal/usecase/hook"
)

// ContributorsRequest is the body of POST /hooks/contributors.
type ContributorsRequest struct {
	NodeIDs []string `json:"node_ids"`
}

// QueuedResponse reports a hook deferred to a background worker.
type QueuedResponse struct {
	Queued bool   `json:"queued"`
	TaskID string `json:"task_id"`
}

// NodeSaved handles POST /hooks/nodes/{id}.
func (s *Server) NodeSaved(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.runHook(w, r,
		func(ctx context.Context) (hookuc.Outcome, error) { return s.hooks.NodeSaved(ctx, id) },
		func(ctx context.Context) (string, error) { return s.tasks.EnqueueNodeSaved(ctx, id) },
	)
}

// NodeDeleted handles DELETE /hooks/nodes/{id}.
func (s *Server) NodeDeleted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.runHook(w, r,
		func(ctx context.Context) (hookuc.Outcome, error) { return s.hooks.NodeDeleted(ctx, id) },
		func(ctx context.Context) (string, error) { return s.tasks.EnqueueNodeDeleted(ctx, id) },
	)
}

// UserSaved handles POST /hooks/users/{id}.
func (s *Server) UserSaved(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.runHook(w, r,
		func(ctx context.Context) (hookuc.Outcome, error) { return s.hooks.UserSaved(ctx, id) },
		func(ctx context.Context) (string, error) { return s.tasks.EnqueueUserSaved(ctx, id) },
	)
}

// ContributorsChanged handles POST /hooks/contributors.
func (s *Server) ContributorsChanged(w http.ResponseWriter, r *http.Request) {
	var req ContributorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.NodeIDs) == 0 {
		writeError(w, http.StatusBadRequest, CodeInvalidQuery, "node_ids is required")
		return
	}
	s.runHook(w, r,
		func(ctx context.Context) (hookuc.Outcome, error) { return s.hooks.ContributorsChanged(ctx, req.NodeIDs) },
		func(ctx context.Context) (string, error) { return s.tasks.EnqueueContributorsChanged(ctx, req.NodeIDs) },
	)
}

// runHook enqueues the hook when a task queue is configured and runs it
// inline otherwise. Both paths answer 202.
func (s *Server) runHook(
	w http.ResponseWriter,
	r *http.Request,
	inline func(context.Context) (hookuc.Outcome, error),
	enqueue func(context.Context) (string, error),
) {
	if s.tasks != nil {
		taskID, err := enqueue(r.Context())
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, QueuedResponse{Queued: true, TaskID: taskID})
		return
	}

	out, err := inline(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

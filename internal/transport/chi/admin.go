package chi

import (
	"net/http"

	"github.com/oapi-codegen/runtime"

	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
)

// IndexResponse names the index an admin operation acted on.
type IndexResponse struct {
	Index string `json:"index"`
}

// CreateIndex handles POST /admin/index.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.CreateIndex(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, IndexResponse{Index: s.admin.IndexName()})
}

// DeleteIndex handles DELETE /admin/index. The optional name parameter
// targets another index, e.g. one left behind by a rename.
func (s *Server) DeleteIndex(w http.ResponseWriter, r *http.Request) {
	name := s.admin.IndexName()
	if err := runtime.BindQueryParameter("form", true, false, "name", r.URL.Query(), &name); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := s.admin.DeleteIndex(r.Context(), name); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetIndex handles POST /admin/index/reset.
func (s *Server) ResetIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.admin.Reset(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IndexResponse{Index: s.admin.IndexName()})
}

// Reindex handles POST /admin/reindex. The run completes before the
// response is written; ?reset=true recreates the index first.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	var opts reindexuc.Options
	if err := runtime.BindQueryParameter("form", true, false, "reset", r.URL.Query(), &opts.Reset); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	rep, err := s.reindex.Run(r.Context(), opts)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// LastReindex handles GET /admin/reindex.
func (s *Server) LastReindex(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reindex.LastReport(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if rep == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "no reindex run recorded")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

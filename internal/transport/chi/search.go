package chi

import (
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/osfio/osfsearch/internal/domain/document"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

// CurrentUserHeader names the searching user for contributor searches.
const CurrentUserHeader = "X-OSF-User"

// SearchResponse is the body of a generic search.
type SearchResponse struct {
	*result.Set
	// Time is the server-side duration in seconds.
	Time float64 `json:"time"`
}

type searchParams struct {
	Q    string
	From *int
	Page *int
	Size *int
	Sort string
}

// SearchGet handles GET /search/ and GET /search/{type}/.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params := searchParams{Q: query.MatchAll}
	if err := bindQuery(r.URL.Query(), map[string]any{
		"q":    &params.Q,
		"from": &params.From,
		"page": &params.Page,
		"size": &params.Size,
		"sort": &params.Sort,
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	size := s.opts.DefaultPageSize
	if params.Size != nil {
		size = min(*params.Size, s.opts.MaxPageSize)
	}
	from := 0
	switch {
	case params.From != nil:
		from = *params.From
	case params.Page != nil:
		from = *params.Page * size
	}

	set, err := s.search.Query(r.Context(), query.Query{
		Term:   params.Q,
		Offset: from,
		Size:   size,
		Sort:   params.Sort,
		Type:   document.Type(chi.URLParam(r, "type")),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Set: set, Time: elapsed(start)})
}

// SearchPost handles POST /search/ and POST /search/{type}/ with a raw
// query body.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body query.Body
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if t := chi.URLParam(r, "type"); t != "" {
		dt, err := document.ParseType(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeInvalidQuery, err.Error())
			return
		}
		body.Types = []document.Type{dt}
	}

	set, err := s.search.Search(r.Context(), "", body)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Set: set, Time: elapsed(start)})
}

// SearchContributors handles GET /search/users/.
func (s *Server) SearchContributors(w http.ResponseWriter, r *http.Request) {
	var (
		term        string
		page        int
		size        = s.opts.ContributorPageSize
		excludeNode string
		exclude     []string
	)
	if err := bindQuery(r.URL.Query(), map[string]any{
		"query":       &term,
		"page":        &page,
		"size":        &size,
		"excludeNode": &excludeNode,
		"exclude":     &exclude,
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.search.SearchContributor(r.Context(), searchuc.ContributorRequest{
		Contributor: query.Contributor{
			Term:    term,
			Page:    page,
			Size:    min(size, s.opts.MaxPageSize),
			Exclude: exclude,
		},
		ExcludeNode: excludeNode,
		CurrentUser: r.Header.Get(CurrentUserHeader),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// bindQuery binds optional form-style query parameters into dests.
func bindQuery(values url.Values, dests map[string]any) error {
	for name, dest := range dests {
		if err := runtime.BindQueryParameter("form", true, false, name, values, dest); err != nil {
			return err //nolint:wrapcheck // runtime errors already name the parameter
		}
	}
	return nil
}

func elapsed(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}

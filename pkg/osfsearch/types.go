package osfsearch

import (
	"github.com/osfio/osfsearch/internal/domain"
	"github.com/osfio/osfsearch/internal/domain/entity"
	"github.com/osfio/osfsearch/internal/domain/search/query"
	"github.com/osfio/osfsearch/internal/domain/search/result"
	reindexuc "github.com/osfio/osfsearch/internal/usecase/reindex"
	searchuc "github.com/osfio/osfsearch/internal/usecase/search"
)

// Entities as the website stores them.
type (
	Node        = entity.Node
	Contributor = entity.Contributor
	User        = entity.User
	Job         = entity.Job
	School      = entity.School
)

// Search requests.
type (
	// Query is a free-text search over the index.
	Query = query.Query
	// Body is a raw engine query body.
	Body = query.Body
	// ContributorQuery is a contributor-autocomplete search.
	ContributorQuery = searchuc.ContributorRequest
)

// Search results.
type (
	Results         = result.Set
	NodeResult      = result.Node
	UserResult      = result.User
	ContributorPage = result.ContributorPage
	ReindexReport   = reindexuc.Report
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrSearchUnavailable = domain.ErrSearchUnavailable
	ErrIndexNotFound     = domain.ErrIndexNotFound
	ErrMalformedQuery    = domain.ErrMalformedQuery
	ErrSearch            = domain.ErrSearch
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrReindexRunning    = domain.ErrReindexRunning
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok"/"error"
}

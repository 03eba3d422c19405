// Package engine defines the port to the external full-text search engine.
//
// Drivers (elastic, bleve) implement Engine and return *Error for every
// engine-level failure. Only the guard package interprets those errors.
package engine

import (
	"context"
	"encoding/json"
)

// Engine is the search engine facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Engine interface {
	Pinger
	IndexManager
	Writer
	Searcher
	Close() error
}

// Pinger checks engine health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	// CreateIndex creates the index with its mapping. An existing index is not an error.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	// DeleteIndex drops the index. A missing index is not an error.
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Writer applies document changes. Writes are visible to search on return
// when the driver is configured to refresh on write.
type Writer interface {
	// Index stores source under id, replacing any previous version.
	Index(ctx context.Context, index, id string, source []byte) error
	// Delete removes id. A missing document is not an error.
	Delete(ctx context.Context, index, id string) error
	// BulkUpdate merges partial documents in one round trip. Per-item
	// failures are reported in the result, not as the returned error.
	BulkUpdate(ctx context.Context, index string, items []PartialUpdate) (*BulkResult, error)
}

// Searcher runs DSL search bodies.
type Searcher interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
}

// PartialUpdate merges Doc into the stored source of ID.
type PartialUpdate struct {
	ID  string
	Doc json.RawMessage
}

// BulkResult reports the outcome of every bulk item, in request order.
type BulkResult struct {
	Items []BulkItem
}

// BulkItem is the outcome of one bulk operation.
type BulkItem struct {
	ID     string
	Status int
	Type   string
	Reason string
}

// Failed reports whether the item was rejected.
func (i BulkItem) Failed() bool { return i.Status < 200 || i.Status > 299 }

// DocumentMissing reports whether the item targeted an absent document.
func (i BulkItem) DocumentMissing() bool {
	return i.Status == 404 || i.Type == TypeDocumentMissing
}

// Failures returns the rejected items.
func (r *BulkResult) Failures() []BulkItem {
	var out []BulkItem
	for _, it := range r.Items {
		if it.Failed() {
			out = append(out, it)
		}
	}
	return out
}

// SearchRequest is one search call.
type SearchRequest struct {
	Index string
	Body  json.RawMessage
	// CountOnly asks for totals and aggregations without hits.
	CountOnly bool
}

// SearchResponse is the driver-neutral search outcome.
type SearchResponse struct {
	Total        int
	Hits         []Hit
	Aggregations map[string][]Bucket
}

// Hit is a single matching document.
type Hit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// Bucket is one terms-aggregation bucket.
type Bucket struct {
	Key      string
	DocCount int
}

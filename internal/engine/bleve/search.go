package bleve

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"

	"github.com/osfio/osfsearch/internal/engine"
)

const (
	defaultSize      = 10
	defaultFacetSize = 10
	// rescoreFactor sizes the first fetch of a boosted search; larger result
	// sets are fetched again in full.
	rescoreFactor = 2
)

type dslBody struct {
	Query        map[string]any    `json:"query"`
	From         *int              `json:"from"`
	Size         *int              `json:"size"`
	Sort         any               `json:"sort"`
	Aggs         map[string]dslAgg `json:"aggs"`
	Aggregations map[string]dslAgg `json:"aggregations"`
}

type dslAgg struct {
	Terms *struct {
		Field string `json:"field"`
		Size  int    `json:"size"`
	} `json:"terms"`
}

// Search runs the DSL body against the index.
func (e *Engine) Search(_ context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	idx, err := e.index(engine.OpSearch, req.Index)
	if err != nil {
		return nil, err
	}

	var body dslBody
	if len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, badRequest(engine.OpSearch, engine.TypeParsing, "failed to parse search body: "+err.Error())
		}
	}
	t, err := translate(body.Query)
	if err != nil {
		return nil, err
	}

	from, size := 0, defaultSize
	if body.From != nil {
		from = *body.From
	}
	if body.Size != nil {
		size = *body.Size
	}
	if req.CountOnly {
		size = 0
	}
	if from < 0 || size < 0 {
		return nil, badRequest(engine.OpSearch, "illegal_argument_exception", "[from] and [size] must be non-negative")
	}
	sortKeys, err := sortOrder(body.Sort)
	if err != nil {
		return nil, err
	}
	rescore := t.boostField != "" && len(sortKeys) == 0 && size > 0

	sr := bleve.NewSearchRequestOptions(t.q, size, from, false)
	if rescore {
		sr.From = 0
		sr.Size = (from + size) * rescoreFactor
		sr.Fields = []string{t.boostField}
	}
	if len(sortKeys) > 0 {
		sr.SortBy(sortKeys)
	}
	aggs := body.Aggs
	if len(aggs) == 0 {
		aggs = body.Aggregations
	}
	for name, agg := range aggs {
		if agg.Terms == nil {
			return nil, badRequest(engine.OpSearch, engine.TypeParsing, "unsupported aggregation ["+name+"]")
		}
		n := agg.Terms.Size
		if n <= 0 {
			n = defaultFacetSize
		}
		sr.AddFacet(name, bleve.NewFacetRequest(agg.Terms.Field, n))
	}

	res, err := idx.Search(sr)
	if err != nil {
		return nil, internalError(engine.OpSearch, err)
	}
	matches := res.Hits
	if rescore {
		// The boost reorders matches, so every match is scored before the
		// window is cut.
		if int(res.Total) > len(res.Hits) {
			sr.Size = int(res.Total)
			if res, err = idx.Search(sr); err != nil {
				return nil, internalError(engine.OpSearch, err)
			}
		}
		matches = applyBoost(idx, res.Hits, t.boostField, from, size)
	}

	out := &engine.SearchResponse{
		Total: int(res.Total),
		Hits:  make([]engine.Hit, 0, len(matches)),
	}
	for _, h := range matches {
		src, err := idx.GetInternal([]byte(h.ID))
		if err != nil {
			return nil, internalError(engine.OpSearch, err)
		}
		out.Hits = append(out.Hits, engine.Hit{ID: h.ID, Score: h.Score, Source: src})
	}

	if len(res.Facets) > 0 {
		out.Aggregations = make(map[string][]engine.Bucket, len(res.Facets))
		for name, fr := range res.Facets {
			buckets := []engine.Bucket{}
			if fr.Terms != nil {
				for _, tf := range fr.Terms.Terms() {
					buckets = append(buckets, engine.Bucket{Key: tf.Term, DocCount: tf.Count})
				}
			}
			out.Aggregations[name] = buckets
		}
	}
	return out, nil
}

// applyBoost multiplies each score by the numeric boost field (1 when
// missing), re-sorts and cuts the [from, from+size) window. Ties keep the
// engine order, so consecutive pages never overlap.
func applyBoost(idx bleve.Index, hits bsearch.DocumentMatchCollection, field string, from, size int) bsearch.DocumentMatchCollection {
	for _, h := range hits {
		h.Score *= boostOf(idx, h, field)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if from >= len(hits) {
		return bsearch.DocumentMatchCollection{}
	}
	return hits[from:min(from+size, len(hits))]
}

// boostOf reads the stored field, falling back to the document source.
func boostOf(idx bleve.Index, h *bsearch.DocumentMatch, field string) float64 {
	if v, ok := h.Fields[field].(float64); ok {
		return v
	}
	src, err := idx.GetInternal([]byte(h.ID))
	if err != nil {
		return 1
	}
	var doc map[string]any
	if err := json.Unmarshal(src, &doc); err != nil {
		return 1
	}
	if v, ok := doc[field].(float64); ok {
		return v
	}
	return 1
}

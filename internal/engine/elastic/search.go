package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/osfio/osfsearch/internal/engine"
)

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      any `json:"key"`
			DocCount int `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// Search runs the request body against the index.
func (e *Engine) Search(ctx context.Context, req *engine.SearchRequest) (*engine.SearchResponse, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	s := e.es.Search
	opts := []func(*esapi.SearchRequest){
		s.WithContext(ctx),
		s.WithIndex(req.Index),
		s.WithTrackTotalHits(true),
	}
	if len(req.Body) > 0 {
		opts = append(opts, s.WithBody(bytes.NewReader(req.Body)))
	}
	if req.CountOnly {
		opts = append(opts, s.WithSize(0))
	}

	res, err := s(opts...)
	if err != nil {
		return nil, engine.ConnError(engine.OpSearch, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, responseError(engine.OpSearch, res)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := &engine.SearchResponse{
		Total: sr.Hits.Total.Value,
		Hits:  make([]engine.Hit, 0, len(sr.Hits.Hits)),
	}
	for _, h := range sr.Hits.Hits {
		hit := engine.Hit{ID: h.ID, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	if len(sr.Aggregations) > 0 {
		out.Aggregations = make(map[string][]engine.Bucket, len(sr.Aggregations))
		for name, agg := range sr.Aggregations {
			buckets := make([]engine.Bucket, 0, len(agg.Buckets))
			for _, b := range agg.Buckets {
				buckets = append(buckets, engine.Bucket{Key: fmt.Sprint(b.Key), DocCount: b.DocCount})
			}
			out.Aggregations[name] = buckets
		}
	}
	return out, nil
}

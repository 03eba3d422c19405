package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/osfio/osfsearch/internal/engine"
)

// Index stores source under id, replacing any previous version.
func (e *Engine) Index(ctx context.Context, index, id string, source []byte) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	ix := e.es.Index
	res, err := ix(index, bytes.NewReader(source),
		ix.WithContext(ctx),
		ix.WithDocumentID(id),
		ix.WithRefresh(e.refresh),
	)
	if err != nil {
		return engine.ConnError(engine.OpIndex, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return responseError(engine.OpIndex, res)
	}
	return nil
}

// Delete removes id. Any 404, for the document or the index, is success.
func (e *Engine) Delete(ctx context.Context, index, id string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	d := e.es.Delete
	res, err := d(index, id, d.WithContext(ctx), d.WithRefresh(e.refresh))
	if err != nil {
		return engine.ConnError(engine.OpDelete, err)
	}
	defer closeBody(res)
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(engine.OpDelete, res)
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string      `json:"_id"`
		Status int         `json:"status"`
		Error  *errorCause `json:"error"`
	} `json:"items"`
}

// BulkUpdate merges partial documents in one request.
func (e *Engine) BulkUpdate(ctx context.Context, index string, items []engine.PartialUpdate) (*engine.BulkResult, error) {
	if len(items) == 0 {
		return &engine.BulkResult{}, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, it := range items {
		action := map[string]any{"update": map[string]any{"_id": it.ID}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(map[string]json.RawMessage{"doc": it.Doc}); err != nil {
			return nil, fmt.Errorf("encode bulk doc %s: %w", it.ID, err)
		}
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	b := e.es.Bulk
	res, err := b(&buf, b.WithContext(ctx), b.WithIndex(index), b.WithRefresh(e.refresh))
	if err != nil {
		return nil, engine.ConnError(engine.OpBulk, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return nil, responseError(engine.OpBulk, res)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return nil, &engine.Error{Op: engine.OpBulk, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := &engine.BulkResult{Items: make([]engine.BulkItem, 0, len(br.Items))}
	for _, entry := range br.Items {
		for _, r := range entry {
			item := engine.BulkItem{ID: r.ID, Status: r.Status}
			if r.Error != nil {
				item.Type = r.Error.Type
				item.Reason = r.Error.Reason
			}
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

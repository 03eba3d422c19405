package bleve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/osfio/osfsearch/internal/engine"
)

// Index stores source under id, replacing any previous version.
func (e *Engine) Index(_ context.Context, index, id string, source []byte) error {
	idx, err := e.index(engine.OpIndex, index)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(source, &doc); err != nil {
		return badRequest(engine.OpIndex, "mapper_parsing_exception", "failed to parse source: "+err.Error())
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	b := idx.NewBatch()
	if err := put(b, id, doc, source); err != nil {
		return badRequest(engine.OpIndex, "mapper_parsing_exception", err.Error())
	}
	if err := idx.Batch(b); err != nil {
		return internalError(engine.OpIndex, err)
	}
	return nil
}

// Delete removes id. A missing document or index is not an error.
func (e *Engine) Delete(_ context.Context, index, id string) error {
	idx, err := e.index(engine.OpDelete, index)
	if err != nil {
		if engine.IsNotFound(err) {
			return nil
		}
		return err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	b := idx.NewBatch()
	b.Delete(id)
	b.DeleteInternal([]byte(id))
	if err := idx.Batch(b); err != nil {
		return internalError(engine.OpDelete, err)
	}
	return nil
}

// BulkUpdate merges each partial document into the stored source and
// reindexes the result, all in one batch.
func (e *Engine) BulkUpdate(_ context.Context, index string, items []engine.PartialUpdate) (*engine.BulkResult, error) {
	if len(items) == 0 {
		return &engine.BulkResult{}, nil
	}
	idx, err := e.index(engine.OpBulk, index)
	if err != nil {
		return nil, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	out := &engine.BulkResult{Items: make([]engine.BulkItem, 0, len(items))}
	b := idx.NewBatch()
	for _, it := range items {
		item, err := e.merge(idx, b, it)
		if err != nil {
			return nil, internalError(engine.OpBulk, err)
		}
		out.Items = append(out.Items, item)
	}
	if err := idx.Batch(b); err != nil {
		return nil, internalError(engine.OpBulk, err)
	}
	return out, nil
}

func (e *Engine) merge(idx bleve.Index, b *bleve.Batch, it engine.PartialUpdate) (engine.BulkItem, error) {
	raw, err := idx.GetInternal([]byte(it.ID))
	if err != nil {
		return engine.BulkItem{}, fmt.Errorf("get source %s: %w", it.ID, err)
	}
	if raw == nil {
		return engine.BulkItem{
			ID:     it.ID,
			Status: 404,
			Type:   engine.TypeDocumentMissing,
			Reason: "[" + it.ID + "]: document missing",
		}, nil
	}

	var doc, patch map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return engine.BulkItem{}, fmt.Errorf("decode source %s: %w", it.ID, err)
	}
	if err := json.Unmarshal(it.Doc, &patch); err != nil {
		return engine.BulkItem{ID: it.ID, Status: 400, Type: "mapper_parsing_exception", Reason: err.Error()}, nil
	}
	for k, v := range patch {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return engine.BulkItem{}, fmt.Errorf("encode source %s: %w", it.ID, err)
	}
	if err := put(b, it.ID, doc, merged); err != nil {
		return engine.BulkItem{ID: it.ID, Status: 400, Type: "mapper_parsing_exception", Reason: err.Error()}, nil
	}
	return engine.BulkItem{ID: it.ID, Status: 200}, nil
}

func put(b *bleve.Batch, id string, doc map[string]any, source []byte) error {
	if err := b.Index(id, doc); err != nil {
		return err
	}
	b.SetInternal([]byte(id), source)
	return nil
}

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/osfio/osfsearch/internal/engine"
)

// CreateIndex creates the index with its mapping. An existing index is kept as is.
func (e *Engine) CreateIndex(ctx context.Context, def *engine.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid index definition: %w", err)
	}
	body, err := json.Marshal(map[string]any{"mappings": mappings(def)})
	if err != nil {
		return fmt.Errorf("marshal mappings: %w", err)
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	c := e.es.Indices.Create
	res, err := c(def.Name, c.WithContext(ctx), c.WithBody(bytes.NewReader(body)))
	if err != nil {
		return engine.ConnError(engine.OpCreateIndex, err)
	}
	defer closeBody(res)
	if res.IsError() {
		ee := responseError(engine.OpCreateIndex, res)
		if ee.Type == engine.TypeAlreadyExists {
			return nil
		}
		return ee
	}
	return nil
}

// DeleteIndex drops the index. A missing index is not an error.
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	d := e.es.Indices.Delete
	res, err := d([]string{name}, d.WithContext(ctx))
	if err != nil {
		return engine.ConnError(engine.OpDeleteIndex, err)
	}
	defer closeBody(res)
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(engine.OpDeleteIndex, res)
	}
	return nil
}

// IndexExists reports whether the index exists.
func (e *Engine) IndexExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	x := e.es.Indices.Exists
	res, err := x([]string{name}, x.WithContext(ctx))
	if err != nil {
		return false, engine.ConnError(engine.OpIndexExists, err)
	}
	defer closeBody(res)
	switch {
	case res.StatusCode == http.StatusNotFound:
		return false, nil
	case res.IsError():
		return false, responseError(engine.OpIndexExists, res)
	default:
		return true, nil
	}
}

// mappings renders the definition as Elasticsearch mappings. Dotted field
// names become nested object properties.
func mappings(def *engine.IndexDefinition) map[string]any {
	root := map[string]any{}
	for _, f := range def.Fields {
		props := root
		parts := strings.Split(f.Name, ".")
		for _, p := range parts[:len(parts)-1] {
			obj, ok := props[p].(map[string]any)
			if !ok {
				obj = map[string]any{"properties": map[string]any{}}
				props[p] = obj
			}
			props = obj["properties"].(map[string]any)
		}
		props[parts[len(parts)-1]] = fieldMapping(f)
	}
	return map[string]any{"properties": root}
}

func fieldMapping(f engine.Field) map[string]any {
	switch f.Type {
	case engine.FieldText:
		m := map[string]any{"type": "text"}
		if f.Analyzer != "" && f.Analyzer != engine.AnalyzerStandard {
			m["analyzer"] = f.Analyzer
		}
		return m
	case engine.FieldNumeric:
		return map[string]any{"type": "float"}
	case engine.FieldDate:
		return map[string]any{"type": "date"}
	case engine.FieldBool:
		return map[string]any{"type": "boolean"}
	default:
		return map[string]any{"type": "keyword"}
	}
}

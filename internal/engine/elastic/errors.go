package elastic

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/osfio/osfsearch/internal/engine"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type errorCause struct {
	Type      string       `json:"type"`
	Reason    string       `json:"reason"`
	RootCause []errorCause `json:"root_cause"`
	CausedBy  *errorCause  `json:"caused_by"`
}

type errorBody struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

// responseError converts a non-2xx response into *engine.Error. The reason
// carries the whole cause chain so callers can match nested parse failures.
func responseError(op string, res *esapi.Response) *engine.Error {
	e := &engine.Error{Op: op, Status: res.StatusCode}
	if res.Body == nil {
		e.Reason = res.Status()
		return e
	}
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		e.Reason = res.Status()
		return e
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Error) == 0 {
		e.Reason = strings.TrimSpace(string(raw))
		return e
	}

	var cause errorCause
	if err := json.Unmarshal(body.Error, &cause); err != nil {
		// Older clusters report the error as a plain string.
		var s string
		if json.Unmarshal(body.Error, &s) == nil {
			e.Reason = s
		} else {
			e.Reason = string(body.Error)
		}
		return e
	}

	e.Type = cause.Type
	e.Reason = describe(&cause)
	return e
}

func describe(c *errorCause) string {
	parts := []string{c.Reason}
	for _, rc := range c.RootCause {
		if rc.Type != c.Type || rc.Reason != c.Reason {
			parts = append(parts, "root cause "+rc.Type+": "+rc.Reason)
		}
	}
	for cb := c.CausedBy; cb != nil; cb = cb.CausedBy {
		parts = append(parts, "caused by "+cb.Type+": "+cb.Reason)
	}
	return strings.Join(parts, "; ")
}

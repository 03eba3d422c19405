package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConnection marks failures where no response was received from the engine.
var ErrConnection = errors.New("engine: connection failed")

// Op constants name engine API calls for error context.
const (
	OpPing        = "cluster.health"
	OpCreateIndex = "indices.create"
	OpDeleteIndex = "indices.delete"
	OpIndexExists = "indices.exists"
	OpIndex       = "index"
	OpDelete      = "delete"
	OpBulk        = "bulk"
	OpSearch      = "search"
)

// Engine error types as reported in error bodies.
const (
	TypeIndexNotFound   = "index_not_found_exception"
	TypeAlreadyExists   = "resource_already_exists_exception"
	TypeDocumentMissing = "document_missing_exception"
	TypeParse           = "parse_exception"
	TypeParsing         = "parsing_exception"
	TypeQueryShard      = "query_shard_exception"
	TypeSearchPhase     = "search_phase_execution_exception"
)

// Error is a failure reported by, or on the way to, the engine.
// Status is zero when no response was received.
type Error struct {
	Op     string
	Status int
	Type   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Type != "":
		return fmt.Sprintf("%s: [%d] %s: %s", e.Op, e.Status, e.Type, e.Reason)
	default:
		return fmt.Sprintf("%s: [%d] %s", e.Op, e.Status, e.Reason)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ConnError wraps a transport failure.
func ConnError(op string, err error) *Error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrConnection, err)}
}

// IsNotFound reports whether err is an engine 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && (e.Status == http.StatusNotFound || e.Type == TypeIndexNotFound)
}

package health

import "context"

// StorePinger checks entity store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EngineChecker reports the search engine connection state.
type EngineChecker interface {
	Available() bool
	Ping(ctx context.Context) error
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrUnknownAgentType indicates a request for an agent type outside the
// recognized set. This is a client-input error, not a server fault.
var ErrUnknownAgentType = errors.New("unknown agent type")

// Factory constructs a new agent of the given kind. Construction may be
// expensive (model setup, tool registration), which is why the registry
// exists: the factory runs at most once per kind for the process
// lifetime, except after a failed construction, which may be retried.
type Factory func(ctx context.Context, kind string) (Agent, error)

// Registry is the process-wide agent instance cache. It maps agent type
// identifiers to live instances, constructing each lazily on first
// demand and reusing it thereafter.
//
// Concurrency contract: lookups of an already-built kind never block on
// construction of an unrelated kind; under concurrent first-time
// requests for the same kind exactly one construction occurs and all
// callers observe the same instance; a failed construction leaves the
// kind unbuilt so a later request can retry.
type Registry struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.RWMutex // guards entries map
	entries map[string]*entry
}

// entry serializes construction per agent kind. agent is nil until a
// construction succeeds.
type entry struct {
	mu    sync.Mutex
	agent Agent
}

// NewRegistry creates an empty registry backed by the given factory.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Resolve returns the live agent for kind, constructing it on first
// demand. Unknown kinds fail with ErrUnknownAgentType.
func (r *Registry) Resolve(ctx context.Context, kind string) (Agent, error) {
	r.mu.RLock()
	e := r.entries[kind]
	r.mu.RUnlock()

	if e == nil {
		if !KnownKind(kind) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAgentType, kind)
		}
		r.mu.Lock()
		if e = r.entries[kind]; e == nil {
			e = &entry{}
			r.entries[kind] = e
		}
		r.mu.Unlock()
	}

	// Per-kind lock: construction of one kind does not block lookups
	// or construction of any other kind.
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.agent != nil {
		return e.agent, nil
	}

	a, err := r.factory(ctx, kind)
	if err != nil {
		// e.agent stays nil: the next Resolve for this kind retries.
		return nil, fmt.Errorf("constructing %q agent: %w", kind, err)
	}
	e.agent = a
	r.logger.Info("agent initialized", "type", kind)
	return a, nil
}

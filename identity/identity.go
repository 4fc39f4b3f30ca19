package identity

import "sync"

// Identity is the resolved client identity. The correlation id never changes after
// construction; the base path changes only through Reresolve.
type Identity struct {
	correlationID string
	resolver      Resolver

	mu       sync.RWMutex
	basePath string
}

// New generates a correlation id and resolves the base path once.
func New(resolver Resolver) *Identity {
	return NewWithCorrelationID(resolver, NewCorrelationID())
}

// NewWithCorrelationID is New with a caller-provided correlation id. An empty id is
// replaced by a generated one.
func NewWithCorrelationID(resolver Resolver, correlationID string) *Identity {
	if correlationID == "" {
		correlationID = NewCorrelationID()
	}
	return &Identity{
		correlationID: correlationID,
		resolver:      resolver,
		basePath:      resolver.Resolve(),
	}
}

// CorrelationID returns the per-process correlation id.
func (i *Identity) CorrelationID() string {
	if i == nil {
		return ""
	}
	return i.correlationID
}

// BasePath returns the currently resolved remote base address.
func (i *Identity) BasePath() string {
	if i == nil {
		return DefaultBaseURL
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.basePath
}

// Reresolve evaluates the resolver again and stores the result. It is the only way the
// base path changes.
func (i *Identity) Reresolve() string {
	if i == nil {
		return DefaultBaseURL
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.basePath = i.resolver.Resolve()
	return i.basePath
}

// Reconfigure swaps the resolver inputs and re-resolves.
func (i *Identity) Reconfigure(resolver Resolver) string {
	if i == nil {
		return DefaultBaseURL
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.resolver = resolver
	i.basePath = resolver.Resolve()
	return i.basePath
}

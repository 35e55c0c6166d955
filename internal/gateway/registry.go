package gateway

import (
	"sort"
	"sync"

	apperrors "paygate/internal/shared/errors"
)

// Factory builds a gateway instance from its config.
type Factory func(cfg Config) (Gateway, error)

// Registry maps gateway names to factories and owns the constructed
// instances. Instances are built once per name and reused; they are
// stateless between calls except for cached short-lived OAuth tokens,
// so sharing one instance across goroutines is safe.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Gateway),
	}
}

// Register binds a gateway name to its factory. Later registrations
// replace earlier ones, which keeps tests free to swap in stubs.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Resolve returns the gateway instance for name, constructing it from
// cfg on first use. Unknown names fail with the gateway_not_found kind.
func (r *Registry) Resolve(name string, cfg Config) (Gateway, error) {
	r.mu.RLock()
	if gw, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return gw, nil
	}
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewGatewayNotFoundError(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have won the race while we were unlocked.
	if gw, ok := r.instances[name]; ok {
		return gw, nil
	}

	gw, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	r.instances[name] = gw
	return gw, nil
}

// Get returns an already-constructed instance.
func (r *Registry) Get(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gw, ok := r.instances[name]
	if !ok {
		return nil, apperrors.NewGatewayNotFoundError(name)
	}
	return gw, nil
}

// Names lists registered factory names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

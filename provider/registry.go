package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mstgnz/thaipay/model"
)

// Registry maps provider types to adapter factories.
type Registry struct {
	factories map[model.ProviderType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[model.ProviderType]Factory),
	}
}

// Register adds an adapter factory, replacing any previous one.
func (r *Registry) Register(t model.ProviderType, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[t] = factory
}

// Get retrieves the factory for t.
func (r *Registry) Get(t model.ProviderType) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[t]
	if !exists {
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedProvider, t)
	}
	return factory, nil
}

// Adapter builds the adapter for t.
func (r *Registry) Adapter(t model.ProviderType, opts Options) (Adapter, error) {
	factory, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return factory(opts), nil
}

// Types returns the registered provider types in sorted order.
func (r *Registry) Types() []model.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.ProviderType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Set is a registry with fixed options, handing out ready adapters.
type Set struct {
	registry *Registry
	opts     Options
	mu       sync.Mutex
	adapters map[model.ProviderType]Adapter
}

// NewSet wraps registry. A nil registry uses DefaultRegistry.
func NewSet(registry *Registry, opts Options) *Set {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Set{registry: registry, opts: opts, adapters: make(map[model.ProviderType]Adapter)}
}

// For returns the adapter bound to t, building it once.
func (s *Set) For(t model.ProviderType) (Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.adapters[t]; ok {
		return a, nil
	}
	a, err := s.registry.Adapter(t, s.opts)
	if err != nil {
		return nil, err
	}
	s.adapters[t] = a
	return a, nil
}

// Types lists the providers this set can serve.
func (s *Set) Types() []model.ProviderType {
	return s.registry.Types()
}

// DefaultRegistry is populated by the init functions of the adapter packages.
var DefaultRegistry = NewRegistry()

// Register registers an adapter with the default registry.
func Register(t model.ProviderType, factory Factory) {
	DefaultRegistry.Register(t, factory)
}

// Get retrieves a factory from the default registry.
func Get(t model.ProviderType) (Factory, error) {
	return DefaultRegistry.Get(t)
}

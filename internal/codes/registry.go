package codes

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultResolverName is the name the application registers its resolver under.
const DefaultResolverName = "codeManager"

// Registry locates resolvers by name. It belongs to the outer wiring layer;
// the lookup engine itself never consults it.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]*Resolver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]*Resolver)}
}

// Register associates a resolver with a name, replacing any previous one.
func (r *Registry) Register(name string, resolver *Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[name] = resolver
}

// Resolver returns the resolver registered under name.
func (r *Registry) Resolver(name string) (*Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resolver, ok := r.resolvers[name]
	if !ok || resolver == nil {
		return nil, fmt.Errorf("%w: %q", ErrResolverNotRegistered, name)
	}
	return resolver, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

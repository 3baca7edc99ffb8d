package manager

import "sync"

// RouteRegistry de-duplicates transport route registration when
// multiple services share one transport process. The mutex is an
// instance field: two registries never interfere, which keeps tests
// and embedded deployments isolated.
type RouteRegistry struct {
	mu     sync.Mutex
	routes map[string]struct{}
}

// NewRouteRegistry builds an empty registry.
func NewRouteRegistry() *RouteRegistry {
	return &RouteRegistry{routes: make(map[string]struct{})}
}

// Claim records the route identifier and reports whether this caller
// won it. Check and record are one critical section, so two concurrent
// claims for the same route can never both succeed.
func (r *RouteRegistry) Claim(route string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.routes[route]; taken {
		return false
	}
	r.routes[route] = struct{}{}
	return true
}

// Claimed reports whether the route is already bound.
func (r *RouteRegistry) Claimed(route string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.routes[route]
	return taken
}

// Len returns the number of claimed routes.
func (r *RouteRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

package circuitbreaker

import "sync"

// Registry is the process-wide, lifecycle-scoped collection of
// per-gateway breakers. A coordinator builds exactly one Registry and
// shares it across requests; no component stores a back-pointer to it.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	breakers map[string]*Breaker
}

// NewRegistry constructs an empty Registry; breakers for gateways are
// created lazily on first Get, all sharing cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:      cfg,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the Breaker for gateway, creating it on first use.
func (r *Registry) Get(gateway string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.breakers[gateway]
	if !ok {
		b = NewBreaker(r.cfg)
		r.breakers[gateway] = b
	}
	return b
}

// Available returns the subset of candidates whose breaker is not OPEN.
func (r *Registry) Available(candidates []string) []string {
	available := make([]string, 0, len(candidates))
	for _, gw := range candidates {
		if r.Get(gw).State() != Open {
			available = append(available, gw)
		}
	}
	return available
}

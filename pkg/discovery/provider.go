package discovery

import (
	"context"
)

// Provider searches one external catalog (Semantic Scholar, arXiv,
// Wikipedia, ...) for candidate sources matching a set of queries.
// Concrete providers live outside this package (pkg/fetch wires the real
// HTTP clients); Discoverer only depends on this interface so tests can
// supply fakes.
type Provider interface {
	Name() string
	Pool() PoolName
	Search(ctx context.Context, queries []string, domain string) ([]Source, error)
}

// registryEntry pairs a provider with its enabled/priority configuration.
type registryEntry struct {
	provider Provider
	enabled  bool
	priority int
}

// ProviderRegistry holds the providers available per pool.
type ProviderRegistry struct {
	entries []registryEntry
}

// NewProviderRegistry builds an empty registry; use Register to add providers.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{}
}

// Register adds a provider with an enabled flag and priority (lower runs
// first when providers are otherwise equal). Disabled providers are kept
// in the registry but skipped during discovery, which lets a provider that
// requires credentials not yet configured stay defined without running.
func (r *ProviderRegistry) Register(p Provider, enabled bool, priority int) {
	r.entries = append(r.entries, registryEntry{provider: p, enabled: enabled, priority: priority})
}

// ForPool returns the enabled providers registered for a pool, ordered by
// priority ascending.
func (r *ProviderRegistry) ForPool(pool PoolName) []Provider {
	var matched []registryEntry
	for _, e := range r.entries {
		if e.enabled && e.provider.Pool() == pool {
			matched = append(matched, e)
		}
	}
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].priority < matched[j-1].priority; j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}
	providers := make([]Provider, len(matched))
	for i, e := range matched {
		providers[i] = e.provider
	}
	return providers
}

// Pools enumerates every pool that has at least one enabled provider.
func (r *ProviderRegistry) Pools() []PoolName {
	seen := map[PoolName]bool{}
	var pools []PoolName
	for _, e := range r.entries {
		if e.enabled && !seen[e.provider.Pool()] {
			seen[e.provider.Pool()] = true
			pools = append(pools, e.provider.Pool())
		}
	}
	return pools
}

package discovery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/ratelimit"
)

// Options configures a single discovery run.
type Options struct {
	MaxSources  int
	MinQuality  float64 // 0 = use DefaultMinQuality
	SourceTypes []PoolName
}

// DefaultMinQuality is the fallback quality threshold used when no
// domain-specific threshold is configured.
const DefaultMinQuality = 0.55

// DefaultMinSources is the floor below which Result.Recommendations
// flags the domain as under-covered.
const DefaultMinSources = 2

// Stats summarizes one discovery run.
type Stats struct {
	TotalDiscovered      int
	MeetsQualityThreshold int
	Returned             int
	AverageQuality       float64
	AveragePriority      float64
	FreeSources          int
	PaidSources          int
	SourceTypeCounts     map[SourceType]int
}

// Result is the full output of Discover.
type Result struct {
	Domain          string
	Sources         []Source
	Statistics      Stats
	Recommendations []string
	QualityThreshold float64
}

// Discoverer runs source discovery across provider pools, gated by a
// shared rate limiter and circuit breaker registry so a failing or
// rate-limited provider doesn't stall the others.
type Discoverer struct {
	registry *ProviderRegistry
	limiter  *ratelimit.Limiter
	breakers *breaker.Registry
}

// NewDiscoverer wires a provider registry to the shared rate limiter and
// breaker registry built by the caller (normally process-wide singletons).
func NewDiscoverer(registry *ProviderRegistry, limiter *ratelimit.Limiter, breakers *breaker.Registry) *Discoverer {
	return &Discoverer{registry: registry, limiter: limiter, breakers: breakers}
}

// Discover searches every enabled pool (unless Options.SourceTypes narrows
// it), scores and ranks the results, enforces a source-type diversity
// quota, and returns the top MaxSources sources plus statistics.
func (d *Discoverer) Discover(ctx context.Context, domain string, queries []string, opts Options) Result {
	maxSources := opts.MaxSources
	if maxSources <= 0 {
		maxSources = 20
	}
	minQuality := opts.MinQuality
	if minQuality <= 0 {
		minQuality = DefaultMinQuality
	}

	pools := d.registry.Pools()
	if len(opts.SourceTypes) > 0 {
		pools = intersectPools(pools, opts.SourceTypes)
	}

	allSources := d.searchPools(ctx, pools, queries, domain)

	var evaluated []Source
	for _, s := range allSources {
		s.QualityScore = QualityScore(s.Signals)
		if s.QualityScore >= minQuality {
			evaluated = append(evaluated, s)
		}
	}

	ranked := rankByPriority(evaluated)
	topSources := enforceDiversity(ranked, maxSources)

	stats := computeStats(allSources, evaluated, topSources)
	recs := buildRecommendations(topSources, stats, minQuality)

	return Result{
		Domain:           domain,
		Sources:          topSources,
		Statistics:       stats,
		Recommendations:  recs,
		QualityThreshold: minQuality,
	}
}

// searchPools fans out one goroutine per pool; within a pool, providers
// run sequentially so per-provider circuit state updates deterministically.
func (d *Discoverer) searchPools(ctx context.Context, pools []PoolName, queries []string, domain string) []Source {
	var mu sync.Mutex
	var all []Source

	g, gctx := errgroup.WithContext(ctx)
	for _, pool := range pools {
		pool := pool
		g.Go(func() error {
			found := d.searchPool(gctx, pool, queries, domain)
			mu.Lock()
			all = append(all, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return all
}

func (d *Discoverer) searchPool(ctx context.Context, pool PoolName, queries []string, domain string) []Source {
	var found []Source
	for _, p := range d.registry.ForPool(pool) {
		name := p.Name()

		if d.breakers != nil && !d.breakers.AllowSource(name) {
			continue
		}
		if d.limiter != nil {
			if allowed, _ := d.limiter.Check(name, domain); !allowed {
				continue
			}
		}

		results, err := p.Search(ctx, queries, domain)
		if d.limiter != nil {
			d.limiter.Record(name, domain)
		}
		if err != nil {
			if d.breakers != nil {
				d.breakers.SourceCircuit(name).RecordFailure()
			}
			continue
		}
		if d.breakers != nil {
			d.breakers.SourceCircuit(name).RecordSuccess()
		}
		found = append(found, results...)
	}
	return found
}

func intersectPools(have []PoolName, want []PoolName) []PoolName {
	wantSet := map[PoolName]bool{}
	for _, p := range want {
		wantSet[p] = true
	}
	var out []PoolName
	for _, p := range have {
		if wantSet[p] {
			out = append(out, p)
		}
	}
	return out
}

// rankByPriority scores each source as priority = quality*0.7 - cost*0.3,
// with a +0.1 bonus for free sources, and sorts descending by priority.
func rankByPriority(sources []Source) []Source {
	ranked := make([]Source, len(sources))
	copy(ranked, sources)
	for i := range ranked {
		cost := CostScore(ranked[i])
		ranked[i].CostScore = cost
		priority := ranked[i].QualityScore*0.7 - cost*0.3
		if cost == 0.0 {
			priority += 0.1
		}
		ranked[i].PriorityScore = priority
		ranked[i].CostTier = CostTier(cost)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})
	return ranked
}

// enforceDiversity caps each source type at ceil(maxSources/3) until that
// quota is filled, then admits remaining high-priority sources regardless
// of type.
func enforceDiversity(ranked []Source, maxSources int) []Source {
	maxPerType := int(math.Max(1, math.Ceil(float64(maxSources)/3.0)))

	var top []Source
	counts := map[SourceType]int{}
	taken := map[int]bool{}

	for i, s := range ranked {
		if len(top) >= maxSources {
			break
		}
		if counts[s.Type] < maxPerType {
			top = append(top, s)
			counts[s.Type]++
			taken[i] = true
		}
	}

	if len(top) < maxSources {
		for i, s := range ranked {
			if len(top) >= maxSources {
				break
			}
			if !taken[i] {
				top = append(top, s)
				taken[i] = true
			}
		}
	}

	return top
}

func computeStats(all, evaluated, top []Source) Stats {
	stats := Stats{
		TotalDiscovered:       len(all),
		MeetsQualityThreshold: len(evaluated),
		Returned:              len(top),
		SourceTypeCounts:      map[SourceType]int{},
	}

	var qualitySum, prioritySum float64
	for _, s := range top {
		qualitySum += s.QualityScore
		prioritySum += s.PriorityScore
		stats.SourceTypeCounts[s.Type]++
		if s.CostScore == 0.0 {
			stats.FreeSources++
		} else {
			stats.PaidSources++
		}
	}
	if len(top) > 0 {
		stats.AverageQuality = qualitySum / float64(len(top))
		stats.AveragePriority = prioritySum / float64(len(top))
	}
	return stats
}

func buildRecommendations(top []Source, stats Stats, minQuality float64) []string {
	var recs []string
	if len(top) < DefaultMinSources {
		recs = append(recs, fmt.Sprintf("Only %d sources found. Need at least %d for this domain.", len(top), DefaultMinSources))
	}
	if stats.AverageQuality < minQuality {
		recs = append(recs, fmt.Sprintf("Average source quality (%.2f) below threshold (%.2f). Consider expanding search.", stats.AverageQuality, minQuality))
	}
	if len(stats.SourceTypeCounts) < 2 {
		recs = append(recs, "Low source diversity. Seek different source types.")
	}
	return recs
}

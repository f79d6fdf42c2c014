// Package ratelimit enforces per-source sliding-window request limits so a
// single source or domain cannot monopolize discovery/fetch traffic. The
// limiter is advisory: callers decide what to do with a deny, the limiter
// itself never blocks or sleeps.
package ratelimit

import (
	"sync"
	"time"
)

// Limits bounds requests per minute and per hour for a source.
type Limits struct {
	PerMinute int
	PerHour   int
	// DomainPerMinute caps one domain's share of a source's per-minute
	// budget. Zero means "derive from PerMinute / 2".
	DomainPerMinute int
}

func (l Limits) domainPerMinute() int {
	if l.DomainPerMinute > 0 {
		return l.DomainPerMinute
	}
	return l.PerMinute / 2
}

// defaultLimits holds the example per-provider request limits.
var defaultLimits = map[string]Limits{
	"semantic_scholar": {PerMinute: 100, PerHour: 5000},
	"arxiv":             {PerMinute: 10, PerHour: 200},
	"openalex":          {PerMinute: 50, PerHour: 10000},
	"wikipedia":         {PerMinute: 200, PerHour: 10000},
	"openstax":          {PerMinute: 20, PerHour: 1000},
	"khan_academy":      {PerMinute: 30, PerHour: 2000},
	"mit_ocw":           {PerMinute: 20, PerHour: 1000},
	"reddit":            {PerMinute: 60, PerHour: 1000},
	"default":           {PerMinute: 10, PerHour: 500},
}

const windowRetention = time.Hour

// Limiter tracks request timestamps per source and per domain and enforces
// Limits against them without mutating state on check.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	domain   map[string][]time.Time
	limits   map[string]Limits
}

// New returns a Limiter seeded with the default per-provider limits.
func New() *Limiter {
	limits := make(map[string]Limits, len(defaultLimits))
	for k, v := range defaultLimits {
		limits[k] = v
	}
	return &Limiter{
		requests: make(map[string][]time.Time),
		domain:   make(map[string][]time.Time),
		limits:   limits,
	}
}

// SetLimit overrides (or adds) the limit for source.
func (l *Limiter) SetLimit(source string, limits Limits) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[source] = limits
}

func (l *Limiter) limitsFor(source string) Limits {
	if lim, ok := l.limits[source]; ok {
		return lim
	}
	return l.limits["default"]
}

// trimLocked drops timestamps older than windowRetention for every tracked
// key. Must be called with l.mu held.
func (l *Limiter) trimLocked(now time.Time) {
	cutoff := now.Add(-windowRetention)
	for source, ts := range l.requests {
		l.requests[source] = trimBefore(ts, cutoff)
	}
	for dom, ts := range l.domain {
		l.domain[dom] = trimBefore(ts, cutoff)
	}
}

func trimBefore(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func countAfter(ts []time.Time, cutoff time.Time) int {
	n := 0
	for _, t := range ts {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// Check reports whether a request against source (optionally scoped to
// domain) is currently allowed. It never mutates state.
func (l *Limiter) Check(source, domain string) (allowed bool, reason string) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trimLocked(now)

	limits := l.limitsFor(source)
	minuteCutoff := now.Add(-time.Minute)
	hourCutoff := now.Add(-time.Hour)

	perMinute := countAfter(l.requests[source], minuteCutoff)
	if perMinute >= limits.PerMinute {
		return false, "rate limit exceeded: per-minute budget for source " + source
	}

	perHour := countAfter(l.requests[source], hourCutoff)
	if perHour >= limits.PerHour {
		return false, "rate limit exceeded: per-hour budget for source " + source
	}

	if domain != "" {
		domainPerMinute := countAfter(l.domain[domain], minuteCutoff)
		if domainPerMinute >= limits.domainPerMinute() {
			return false, "rate limit exceeded: per-minute budget for domain " + domain
		}
	}

	return true, ""
}

// Record appends a timestamp for source (and domain, if given). Call only
// after a successful Check.
func (l *Limiter) Record(source, domain string) {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests[source] = append(l.requests[source], now)
	if domain != "" {
		l.domain[domain] = append(l.domain[domain], now)
	}
}

// Stats summarizes current usage for source.
type Stats struct {
	Source            string
	Limits            Limits
	RequestsLastMinute int
	RequestsLastHour   int
	RemainingMinute    int
	RemainingHour      int
}

// Stats reports current window occupancy for source.
func (l *Limiter) Stats(source string) Stats {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trimLocked(now)

	limits := l.limitsFor(source)
	minute := countAfter(l.requests[source], now.Add(-time.Minute))
	hour := countAfter(l.requests[source], now.Add(-time.Hour))

	remMinute := limits.PerMinute - minute
	if remMinute < 0 {
		remMinute = 0
	}
	remHour := limits.PerHour - hour
	if remHour < 0 {
		remHour = 0
	}

	return Stats{
		Source:             source,
		Limits:             limits,
		RequestsLastMinute: minute,
		RequestsLastHour:   hour,
		RemainingMinute:    remMinute,
		RemainingHour:      remHour,
	}
}

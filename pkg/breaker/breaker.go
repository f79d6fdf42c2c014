// Package breaker implements a per-key circuit breaker finite-state machine
// (closed/open/half_open) for domains and sources, so a misbehaving provider
// can be paused quickly without taking down the rest of discovery/fetch.
package breaker

import (
	"sync"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// Default circuit tuning: open after 5 failures within a 60s window,
// attempt recovery after 30s.
const (
	DefaultFailureThreshold = 5
	DefaultWindowSeconds    = 60
	DefaultRecoverySeconds  = 30
)

// Config tunes a single circuit.
type Config struct {
	FailureThreshold int
	Window           time.Duration
	Recovery         time.Duration
}

// DefaultConfig returns the package's default circuit tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: DefaultFailureThreshold,
		Window:           DefaultWindowSeconds * time.Second,
		Recovery:         DefaultRecoverySeconds * time.Second,
	}
}

// Circuit is the FSM for a single key (e.g. "domain:arxiv.org" or
// "source:semantic_scholar"). The breaker is consulted before dispatching
// to a provider and never from inside I/O; success/failure is recorded
// only after the I/O completes.
type Circuit struct {
	mu       sync.Mutex
	key      string
	cfg      Config
	state    models.CircuitFSMState
	failures []time.Time
	lastFail *time.Time
	openedAt *time.Time
}

func newCircuit(key string, cfg Config) *Circuit {
	return &Circuit{key: key, cfg: cfg, state: models.CircuitClosed}
}

func (c *Circuit) trimLocked(now time.Time) {
	cutoff := now.Add(-c.cfg.Window)
	kept := c.failures[:0]
	for _, t := range c.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		c.failures = nil
	} else {
		c.failures = kept
	}
}

// AllowRequest reports whether a request may proceed, advancing open ->
// half_open once the recovery window has elapsed.
func (c *Circuit) AllowRequest() bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case models.CircuitClosed:
		return true
	case models.CircuitOpen:
		if c.openedAt != nil && now.Sub(*c.openedAt) >= c.cfg.Recovery {
			c.state = models.CircuitHalfOpen
			c.openedAt = nil
			return true
		}
		return false
	default: // half_open: allow exactly one probe
		return true
	}
}

// RecordSuccess closes the circuit from half_open, or trims the failure
// window while remaining closed.
func (c *Circuit) RecordSuccess() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case models.CircuitHalfOpen:
		c.state = models.CircuitClosed
		c.failures = nil
	case models.CircuitClosed:
		c.trimLocked(now)
	}
}

// RecordFailure appends a failure timestamp and opens the circuit if the
// failure threshold is reached within the window, or immediately if the
// probe from half_open failed.
func (c *Circuit) RecordFailure() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastFail = &now
	c.failures = append(c.failures, now)
	c.trimLocked(now)

	if c.state == models.CircuitHalfOpen {
		c.state = models.CircuitOpen
		c.openedAt = &now
		return
	}

	if c.state == models.CircuitClosed && len(c.failures) >= c.cfg.FailureThreshold {
		c.state = models.CircuitOpen
		c.openedAt = &now
	}
}

// ForceOpen is an administrative kill switch: pause this key immediately.
func (c *Circuit) ForceOpen() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.CircuitOpen
	c.openedAt = &now
}

// ForceClose is an administrative kill switch: resume this key
// immediately, clearing accumulated failures.
func (c *Circuit) ForceClose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = models.CircuitClosed
	c.failures = nil
	c.openedAt = nil
}

// Status returns a point-in-time snapshot.
func (c *Circuit) Status() models.CircuitStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CircuitStatus{
		Key:           c.key,
		State:         c.state,
		FailureCount:  len(c.failures),
		LastFailureAt: c.lastFail,
		OpenedAt:      c.openedAt,
	}
}

// Registry holds one Circuit per domain and per source key, created
// lazily on first access.
type Registry struct {
	mu     sync.Mutex
	cfg    Config
	domain map[string]*Circuit
	source map[string]*Circuit
}

// NewRegistry builds a Registry using cfg for every circuit it creates.
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg:    cfg,
		domain: make(map[string]*Circuit),
		source: make(map[string]*Circuit),
	}
}

func (r *Registry) circuitLocked(m map[string]*Circuit, prefix, key string) *Circuit {
	if c, ok := m[key]; ok {
		return c
	}
	c := newCircuit(prefix+key, r.cfg)
	m[key] = c
	return c
}

// DomainCircuit returns (creating if needed) the circuit for domain.
func (r *Registry) DomainCircuit(domain string) *Circuit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.circuitLocked(r.domain, "domain:", domain)
}

// SourceCircuit returns (creating if needed) the circuit for source.
func (r *Registry) SourceCircuit(source string) *Circuit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.circuitLocked(r.source, "source:", source)
}

// AllowDomain is a convenience wrapper over DomainCircuit(domain).AllowRequest().
func (r *Registry) AllowDomain(domain string) bool { return r.DomainCircuit(domain).AllowRequest() }

// AllowSource is a convenience wrapper over SourceCircuit(source).AllowRequest().
func (r *Registry) AllowSource(source string) bool { return r.SourceCircuit(source).AllowRequest() }

// PauseDomain force-opens the domain's circuit (kill switch).
func (r *Registry) PauseDomain(domain string) { r.DomainCircuit(domain).ForceOpen() }

// PauseSource force-opens the source's circuit (kill switch).
func (r *Registry) PauseSource(source string) { r.SourceCircuit(source).ForceOpen() }

// ResumeDomain force-closes the domain's circuit.
func (r *Registry) ResumeDomain(domain string) { r.DomainCircuit(domain).ForceClose() }

// ResumeSource force-closes the source's circuit.
func (r *Registry) ResumeSource(source string) { r.SourceCircuit(source).ForceClose() }

// ListStatus returns a snapshot of every known domain and source circuit.
func (r *Registry) ListStatus() (domains, sources map[string]models.CircuitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	domains = make(map[string]models.CircuitStatus, len(r.domain))
	for k, c := range r.domain {
		domains[k] = c.Status()
	}
	sources = make(map[string]models.CircuitStatus, len(r.source))
	for k, c := range r.source {
		sources[k] = c.Status()
	}
	return domains, sources
}

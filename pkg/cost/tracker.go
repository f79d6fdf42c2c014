// Package cost tracks model-call spend and enforces budget caps and
// envelopes against it.
package cost

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

type dailyKey struct {
	date   string // YYYY-MM-DD
	domain string
	queue  string
}

const (
	globalDomain = "global"
	defaultQueue = "default"
)

func dayOf(t time.Time) string { return t.UTC().Format("2006-01-02") }

// Tracker records every model call and maintains daily/domain/queue
// rollups for budget checks.
type Tracker struct {
	mu          sync.Mutex
	calls       []models.CostCallRecord
	dailyCosts  map[dailyKey]float64
	domainCosts map[string]float64
	queueCosts  map[string]float64
	agentDaily  map[string]map[string]float64 // agent -> date -> cost
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		dailyCosts:  make(map[dailyKey]float64),
		domainCosts: make(map[string]float64),
		queueCosts:  make(map[string]float64),
		agentDaily:  make(map[string]map[string]float64),
	}
}

// RecordCallParams is the input to RecordCall.
type RecordCallParams struct {
	Model        string
	Provider     string
	InputTokens  int
	OutputTokens int
	Domain       string
	Queue        string
	Agent        string
	DurationMS   float64
	Success      bool
	Error        string
}

// RecordCall prices a model call and folds it into every rollup.
func (t *Tracker) RecordCall(p RecordCallParams) models.CostCallRecord {
	costUSD := CalculateCost(p.Model, p.InputTokens, p.OutputTokens)

	call := models.CostCallRecord{
		Timestamp:    time.Now().UTC(),
		Model:        p.Model,
		Provider:     p.Provider,
		InputTokens:  p.InputTokens,
		OutputTokens: p.OutputTokens,
		CostUSD:      costUSD,
		Domain:       p.Domain,
		Queue:        p.Queue,
		Agent:        p.Agent,
		DurationMS:   p.DurationMS,
		Success:      p.Success,
		Error:        p.Error,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, call)

	domain := p.Domain
	if domain == "" {
		domain = globalDomain
	}
	queue := p.Queue
	if queue == "" {
		queue = defaultQueue
	}
	key := dailyKey{date: dayOf(call.Timestamp), domain: domain, queue: queue}
	t.dailyCosts[key] += costUSD

	if p.Domain != "" {
		t.domainCosts[p.Domain] += costUSD
	}
	if p.Queue != "" {
		t.queueCosts[p.Queue] += costUSD
	}
	if p.Agent != "" {
		byDate, ok := t.agentDaily[p.Agent]
		if !ok {
			byDate = make(map[string]float64)
			t.agentDaily[p.Agent] = byDate
		}
		byDate[dayOf(call.Timestamp)] += costUSD
	}

	return call
}

// Daily returns total cost for a day, optionally filtered by domain
// and/or queue. A zero date means today.
func (t *Tracker) Daily(domain, queue string, date time.Time) float64 {
	if date.IsZero() {
		date = time.Now()
	}
	d := dayOf(date)

	t.mu.Lock()
	defer t.mu.Unlock()

	if domain == "" && queue == "" {
		var total float64
		for k, cost := range t.dailyCosts {
			if k.date == d {
				total += cost
			}
		}
		return total
	}

	dom := domain
	if dom == "" {
		dom = globalDomain
	}
	q := queue
	if q == "" {
		q = defaultQueue
	}
	return t.dailyCosts[dailyKey{date: d, domain: dom, queue: q}]
}

// AgentDaily returns total cost for agent on date (zero date == today).
func (t *Tracker) AgentDaily(agent string, date time.Time) float64 {
	if date.IsZero() {
		date = time.Now()
	}
	d := dayOf(date)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.agentDaily[agent][d]
}

// Domain returns all-time total cost for a domain.
func (t *Tracker) Domain(domain string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.domainCosts[domain]
}

// Queue returns all-time total cost for a queue.
func (t *Tracker) Queue(queue string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queueCosts[queue]
}

// Total returns the all-time total cost across every day/domain/queue.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, cost := range t.dailyCosts {
		total += cost
	}
	return total
}

// Recent returns up to limit of the most recently recorded calls, oldest
// first within that window.
func (t *Tracker) Recent(limit int) []models.CostCallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	if limit <= 0 || limit > len(t.calls) {
		limit = len(t.calls)
	}
	out := make([]models.CostCallRecord, limit)
	copy(out, t.calls[len(t.calls)-limit:])
	return out
}

// TopEntry is one ranked row of Stats' top_domains/top_queues.
type TopEntry struct {
	Key  string
	Cost float64
}

// Stats is the cost statistics summary.
type Stats struct {
	TotalCalls        int
	SuccessfulCalls   int
	FailedCalls       int
	TotalCostUSD      float64
	TotalTokens       int
	DomainsWithCosts  int
	QueuesWithCosts   int
	TopDomains        []TopEntry
	TopQueues         []TopEntry
}

func topN(m map[string]float64, n int) []TopEntry {
	entries := make([]TopEntry, 0, len(m))
	for k, v := range m {
		entries = append(entries, TopEntry{Key: k, Cost: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Cost == entries[j].Cost {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].Cost > entries[j].Cost
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Stats computes the cost statistics summary.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var successful, tokens int
	for _, c := range t.calls {
		if c.Success {
			successful++
		}
		tokens += c.InputTokens + c.OutputTokens
	}

	var total float64
	for _, cost := range t.dailyCosts {
		total += cost
	}

	return Stats{
		TotalCalls:       len(t.calls),
		SuccessfulCalls:  successful,
		FailedCalls:      len(t.calls) - successful,
		TotalCostUSD:     total,
		TotalTokens:      tokens,
		DomainsWithCosts: len(t.domainCosts),
		QueuesWithCosts:  len(t.queueCosts),
		TopDomains:       topN(t.domainCosts, 10),
		TopQueues:        topN(t.queueCosts, 10),
	}
}

// FormatUSD is a small helper kept for consistent error-message formatting
// across pkg/cost.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.4f", v)
}

package cost

import (
	"fmt"
	"sync"
	"time"
)

type domainQueueDate struct {
	date   string
	domain string
	queue  string
}

// Budget enforces hard spend caps against a Tracker: a global daily
// limit, per-(domain,queue) daily limits, per-domain all-time limits, and
// per-queue all-time limits.
type Budget struct {
	tracker *Tracker

	mu                sync.Mutex
	globalDailyLimit  *float64
	dailyLimits       map[domainQueueDate]float64
	domainLimits      map[string]float64
	queueLimits       map[string]float64
}

// NewBudget returns a Budget with no caps set; any cap can be added or
// changed at runtime via the SetXxx methods.
func NewBudget(tracker *Tracker) *Budget {
	return &Budget{
		tracker:      tracker,
		dailyLimits:  make(map[domainQueueDate]float64),
		domainLimits: make(map[string]float64),
		queueLimits:  make(map[string]float64),
	}
}

// SetGlobalDailyLimit sets the global_daily_limit cap in USD.
func (b *Budget) SetGlobalDailyLimit(limitUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.globalDailyLimit = &limitUSD
}

// SetDailyLimit sets a daily cap scoped to domain/queue/date. A zero date
// defaults to today.
func (b *Budget) SetDailyLimit(limitUSD float64, domain, queue string, date time.Time) {
	if date.IsZero() {
		date = time.Now()
	}
	dom := domain
	if dom == "" {
		dom = globalDomain
	}
	q := queue
	if q == "" {
		q = defaultQueue
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dailyLimits[domainQueueDate{date: dayOf(date), domain: dom, queue: q}] = limitUSD
}

// SetDomainLimit sets domain_total_limit for domain (all time).
func (b *Budget) SetDomainLimit(domain string, limitUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.domainLimits[domain] = limitUSD
}

// SetQueueLimit sets queue_total_limit for queue (all time).
func (b *Budget) SetQueueLimit(queue string, limitUSD float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queueLimits[queue] = limitUSD
}

// Check reports whether spending additionalCost now would stay within
// every applicable cap, without mutating any state.
func (b *Budget) Check(domain, queue string, additionalCost float64) (allowed bool, reason string) {
	today := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.globalDailyLimit != nil {
		spent := b.tracker.Daily("", "", today)
		if spent+additionalCost > *b.globalDailyLimit {
			return false, fmt.Sprintf(
				"global daily budget exceeded: %s + %s > %s",
				FormatUSD(spent), FormatUSD(additionalCost), FormatUSD(*b.globalDailyLimit),
			)
		}
	}

	if domain != "" {
		key := domainQueueDate{date: dayOf(today), domain: domain, queue: queueOrDefault(queue)}
		if limit, ok := b.dailyLimits[key]; ok {
			spent := b.tracker.Daily(domain, queue, today)
			if spent+additionalCost > limit {
				return false, fmt.Sprintf(
					"daily budget for domain %q exceeded: %s + %s > %s",
					domain, FormatUSD(spent), FormatUSD(additionalCost), FormatUSD(limit),
				)
			}
		}
	}

	if domain != "" {
		if limit, ok := b.domainLimits[domain]; ok {
			spent := b.tracker.Domain(domain)
			if spent+additionalCost > limit {
				return false, fmt.Sprintf(
					"domain budget for %q exceeded: %s + %s > %s",
					domain, FormatUSD(spent), FormatUSD(additionalCost), FormatUSD(limit),
				)
			}
		}
	}

	if queue != "" {
		if limit, ok := b.queueLimits[queue]; ok {
			spent := b.tracker.Queue(queue)
			if spent+additionalCost > limit {
				return false, fmt.Sprintf(
					"queue budget for %q exceeded: %s + %s > %s",
					queue, FormatUSD(spent), FormatUSD(additionalCost), FormatUSD(limit),
				)
			}
		}
	}

	return true, ""
}

func queueOrDefault(q string) string {
	if q == "" {
		return defaultQueue
	}
	return q
}

// Enforce calls Check and returns a *BudgetExceededError if it fails.
func (b *Budget) Enforce(domain, queue string, additionalCost float64) error {
	allowed, reason := b.Check(domain, queue, additionalCost)
	if !allowed {
		return newBudgetExceeded("hard_cap", reason)
	}
	return nil
}

// Status summarizes configured caps (for a debug/telemetry surface).
type Status struct {
	GlobalDailyLimit    *float64
	GlobalDailySpent    float64
	GlobalDailyRemaining *float64
	DomainLimits        map[string]float64
	QueueLimits         map[string]float64
}

// Status reports the current global daily spend against configured caps.
func (b *Budget) Status() Status {
	today := time.Now()
	spent := b.tracker.Daily("", "", today)

	b.mu.Lock()
	defer b.mu.Unlock()

	var remaining *float64
	if b.globalDailyLimit != nil {
		r := *b.globalDailyLimit - spent
		if r < 0 {
			r = 0
		}
		remaining = &r
	}

	domainLimits := make(map[string]float64, len(b.domainLimits))
	for k, v := range b.domainLimits {
		domainLimits[k] = v
	}
	queueLimits := make(map[string]float64, len(b.queueLimits))
	for k, v := range b.queueLimits {
		queueLimits[k] = v
	}

	return Status{
		GlobalDailyLimit:     b.globalDailyLimit,
		GlobalDailySpent:     spent,
		GlobalDailyRemaining: remaining,
		DomainLimits:         domainLimits,
		QueueLimits:          queueLimits,
	}
}

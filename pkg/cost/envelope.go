package cost

import (
	"fmt"
	"sync"
	"time"
)

// EnvelopeWindow is the accounting window a Envelope checks spend against.
type EnvelopeWindow string

// Recognized envelope windows.
const (
	WindowAllTime EnvelopeWindow = "all_time"
	WindowDaily   EnvelopeWindow = "daily"
	WindowPerCall EnvelopeWindow = "per_call"
)

// Envelope is a single named budget envelope: a cap tracked over its own
// window, independent of the domain/queue rollups in Tracker.
type Envelope struct {
	Scope  string
	CapUSD float64
	Window EnvelopeWindow

	mu         sync.Mutex
	spentTotal float64
	dailySpent map[string]float64
}

func newEnvelope(scope string, capUSD float64, window EnvelopeWindow) *Envelope {
	return &Envelope{Scope: scope, CapUSD: capUSD, Window: window, dailySpent: make(map[string]float64)}
}

// CheckCap reports whether spending additionalCost now stays within cap.
func (e *Envelope) CheckCap(additionalCost float64) (allowed bool, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.Window {
	case WindowDaily:
		today := dayOf(time.Now())
		if e.dailySpent[today]+additionalCost > e.CapUSD {
			return false, fmt.Sprintf(
				"daily budget envelope %q exceeded: %s + %s > %s",
				e.Scope, FormatUSD(e.dailySpent[today]), FormatUSD(additionalCost), FormatUSD(e.CapUSD),
			)
		}
	case WindowPerCall:
		if additionalCost > e.CapUSD {
			return false, fmt.Sprintf(
				"per-call budget envelope %q exceeded: %s > %s",
				e.Scope, FormatUSD(additionalCost), FormatUSD(e.CapUSD),
			)
		}
	default: // all_time
		if e.spentTotal+additionalCost > e.CapUSD {
			return false, fmt.Sprintf(
				"budget envelope %q exceeded: %s + %s > %s",
				e.Scope, FormatUSD(e.spentTotal), FormatUSD(additionalCost), FormatUSD(e.CapUSD),
			)
		}
	}
	return true, ""
}

// RecordSpend folds cost into this envelope's running total.
func (e *Envelope) RecordSpend(costUSD float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.spentTotal += costUSD
	if e.Window == WindowDaily {
		e.dailySpent[dayOf(time.Now())] += costUSD
	}
}

// Remaining reports the budget left in the current window.
func (e *Envelope) Remaining() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.Window {
	case WindowDaily:
		r := e.CapUSD - e.dailySpent[dayOf(time.Now())]
		if r < 0 {
			return 0
		}
		return r
	case WindowPerCall:
		return e.CapUSD
	default:
		r := e.CapUSD - e.spentTotal
		if r < 0 {
			return 0
		}
		return r
	}
}

// Canonical envelope scope names.
const (
	ScopePerTask             = "per_task"
	ScopePerAgent            = "per_agent"
	ScopePerQueueConcurrency = "per_queue_concurrency"
	ScopePerToolCall         = "per_tool_call"
)

// EnvelopeManager manages the four layered envelopes and enforces them
// together with Tracker-backed per-agent daily spend.
type EnvelopeManager struct {
	tracker *Tracker

	mu        sync.Mutex
	envelopes map[string]*Envelope
}

// NewEnvelopeManager returns a manager with no envelopes configured; caps
// are opt-in via SetEnvelope, normally loaded from the environment at
// startup, though any can be changed at runtime.
func NewEnvelopeManager(tracker *Tracker) *EnvelopeManager {
	return &EnvelopeManager{tracker: tracker, envelopes: make(map[string]*Envelope)}
}

// SetEnvelope configures (or replaces) the envelope for scope.
func (m *EnvelopeManager) SetEnvelope(scope string, capUSD float64, window EnvelopeWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envelopes[scope] = newEnvelope(scope, capUSD, window)
}

func (m *EnvelopeManager) get(scope string) *Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.envelopes[scope]
}

func (m *EnvelopeManager) checkTaskCap(additionalCost float64) (bool, string) {
	e := m.get(ScopePerTask)
	if e == nil {
		return true, ""
	}
	return e.CheckCap(additionalCost)
}

func (m *EnvelopeManager) checkAgentDailyCap(agent string, additionalCost float64) (bool, string) {
	e := m.get(ScopePerAgent)
	if e == nil {
		return true, ""
	}
	spent := m.tracker.AgentDaily(agent, time.Time{})
	if spent+additionalCost > e.CapUSD {
		return false, fmt.Sprintf(
			"agent %q daily cap exceeded: %s + %s > %s",
			agent, FormatUSD(spent), FormatUSD(additionalCost), FormatUSD(e.CapUSD),
		)
	}
	return true, ""
}

func (m *EnvelopeManager) checkQueueConcurrencyCap(additionalCost float64) (bool, string) {
	e := m.get(ScopePerQueueConcurrency)
	if e == nil {
		return true, ""
	}
	return e.CheckCap(additionalCost)
}

func (m *EnvelopeManager) checkToolCallCap(additionalCost float64) (bool, string) {
	e := m.get(ScopePerToolCall)
	if e == nil {
		return true, ""
	}
	return e.CheckCap(additionalCost)
}

// EnforceParams scopes an EnforceAllCaps call; empty strings skip that
// scope's check.
type EnforceParams struct {
	TaskID         string
	Agent          string
	Queue          string
	Tool           string
	AdditionalCost float64
}

// EnforceAllCaps checks every applicable envelope and returns a
// *BudgetExceededError at the first violation, checked in task -> agent ->
// queue -> tool order.
func (m *EnvelopeManager) EnforceAllCaps(p EnforceParams) error {
	if p.TaskID != "" {
		if allowed, reason := m.checkTaskCap(p.AdditionalCost); !allowed {
			return newBudgetExceeded(ScopePerTask, reason)
		}
	}
	if p.Agent != "" {
		if allowed, reason := m.checkAgentDailyCap(p.Agent, p.AdditionalCost); !allowed {
			return newBudgetExceeded(ScopePerAgent, reason)
		}
	}
	if p.Queue != "" {
		if allowed, reason := m.checkQueueConcurrencyCap(p.AdditionalCost); !allowed {
			return newBudgetExceeded(ScopePerQueueConcurrency, reason)
		}
	}
	if p.Tool != "" {
		if allowed, reason := m.checkToolCallCap(p.AdditionalCost); !allowed {
			return newBudgetExceeded(ScopePerToolCall, reason)
		}
	}
	return nil
}

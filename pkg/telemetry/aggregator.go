// Package telemetry aggregates system health into a single snapshot the
// supervisor's status node (and an admin API) can query instead of
// reconstructing it from scattered state on every turn.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/cmeth990/kgctl/pkg/breaker"
	"github.com/cmeth990/kgctl/pkg/cost"
	"github.com/cmeth990/kgctl/pkg/kgdiff"
	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/cmeth990/kgctl/pkg/queue"
)

// stuckThreshold matches pkg/queue/stuck.go's default stuck window, so the
// queue health section counts the same backlog the monitor would act on.
const stuckThreshold = 30 * time.Minute

// recentCallsWindow bounds how many of the cost tracker's most recent
// calls the error-rate section inspects.
const recentCallsWindow = 100

// recentFailuresLimit caps QueueHealthSnapshot.RecentFailures.
const recentFailuresLimit = 10

// Aggregator pulls a point-in-time system state snapshot out of the
// already-running cost tracker, budget governor, circuit breaker registry,
// queue store, and KG changelog. Every dependency is optional: a nil
// dependency degrades its section to a reported error rather than a panic,
// exactly like the guarded getters it's grounded on.
type Aggregator struct {
	Tracker   *cost.Tracker
	Budget    *cost.Budget
	Breakers  *breaker.Registry
	Queue     queue.Store
	Changelog kgdiff.ChangelogStore
}

// NewAggregator wires an Aggregator from its constituent subsystems. Any
// argument may be nil; the corresponding snapshot section reports an error
// instead of failing the whole snapshot.
func NewAggregator(tracker *cost.Tracker, budget *cost.Budget, breakers *breaker.Registry, store queue.Store, changelog kgdiff.ChangelogStore) *Aggregator {
	return &Aggregator{Tracker: tracker, Budget: budget, Breakers: breakers, Queue: store, Changelog: changelog}
}

// Snapshot builds the full system state snapshot.
func (a *Aggregator) Snapshot(ctx context.Context) models.SystemStateSnapshot {
	return models.SystemStateSnapshot{
		Timestamp:   time.Now().UTC(),
		AgentHealth: a.agentHealth(),
		CostTrack:   a.costTracking(),
		QueueHealth: a.queueHealth(ctx),
		ErrorRates:  a.errorRates(),
		KGStats:     a.kgStatistics(ctx),
	}
}

func (a *Aggregator) agentHealth() models.AgentHealthSnapshot {
	if a.Breakers == nil {
		return models.AgentHealthSnapshot{Error: "circuit breaker registry not configured"}
	}

	domains, sources := a.Breakers.ListStatus()
	return models.AgentHealthSnapshot{
		Domains: summarizeCircuits(domains),
		Sources: summarizeCircuits(sources),
	}
}

func summarizeCircuits(statuses map[string]models.CircuitStatus) models.CircuitGroupSnapshot {
	out := models.CircuitGroupSnapshot{Total: len(statuses), ByState: make(map[string]int)}
	for key, status := range statuses {
		state := string(status.State)
		out.ByState[state]++
		switch status.State {
		case models.CircuitOpen:
			out.Open = append(out.Open, key)
		case models.CircuitHalfOpen:
			out.HalfOpen = append(out.HalfOpen, key)
		}
	}
	return out
}

func (a *Aggregator) costTracking() models.CostTrackingSnapshot {
	if a.Tracker == nil {
		return models.CostTrackingSnapshot{Error: "cost tracker not configured"}
	}

	stats := a.Tracker.Stats()
	snapshot := models.CostTrackingSnapshot{
		TotalCostUSD:    stats.TotalCostUSD,
		TotalCalls:      stats.TotalCalls,
		SuccessfulCalls: stats.SuccessfulCalls,
		FailedCalls:     stats.FailedCalls,
		TotalTokens:     stats.TotalTokens,
		TopDomains:      topEntries(stats.TopDomains, 5),
		TopQueues:       topEntries(stats.TopQueues, 5),
	}

	if a.Budget != nil {
		status := a.Budget.Status()
		snapshot.GlobalDailyLimit = status.GlobalDailyLimit
		snapshot.GlobalDailySpent = status.GlobalDailySpent
		snapshot.GlobalDailyRemain = status.GlobalDailyRemaining
		snapshot.DomainLimitCount = len(status.DomainLimits)
		snapshot.QueueLimitCount = len(status.QueueLimits)
	}

	return snapshot
}

func topEntries(entries []cost.TopEntry, limit int) []models.TopCostEntry {
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]models.TopCostEntry, len(entries))
	for i, e := range entries {
		out[i] = models.TopCostEntry{Key: e.Key, Cost: e.Cost}
	}
	return out
}

// queueHealth reports the dead-letter and stuck backlog sizes by reading
// the queue store directly; this module has no separate task-status
// registry to aggregate from.
func (a *Aggregator) queueHealth(ctx context.Context) models.QueueHealthSnapshot {
	if a.Queue == nil {
		return models.QueueHealthSnapshot{Error: "queue store not configured"}
	}

	deadLetter, err := a.Queue.DeadLetterTasks(ctx, recentFailuresLimit)
	if err != nil {
		return models.QueueHealthSnapshot{Error: fmt.Sprintf("dead letter tasks: %s", err)}
	}
	stuck, err := a.Queue.StuckTasks(ctx, stuckThreshold)
	if err != nil {
		return models.QueueHealthSnapshot{Error: fmt.Sprintf("stuck tasks: %s", err)}
	}

	failures := make([]models.TaskFailureEntry, 0, len(deadLetter))
	for _, t := range deadLetter {
		failures = append(failures, models.TaskFailureEntry{
			TaskID:    t.TaskID,
			Agent:     t.Agent,
			Error:     t.Error,
			UpdatedAt: t.UpdatedAt,
		})
	}

	return models.QueueHealthSnapshot{
		DeadLetterCount: len(deadLetter),
		StuckCount:      len(stuck),
		RecentFailures:  failures,
	}
}

func (a *Aggregator) errorRates() models.ErrorRateSnapshot {
	if a.Tracker == nil {
		return models.ErrorRateSnapshot{Error: "cost tracker not configured"}
	}

	calls := a.Tracker.Recent(recentCallsWindow)
	var errored []models.CostCallRecord
	byProvider := make(map[string]int)
	for _, c := range calls {
		if c.Success {
			continue
		}
		errored = append(errored, c)
		byProvider[c.Provider]++
	}

	var rate float64
	if len(calls) > 0 {
		rate = float64(len(errored)) / float64(len(calls))
	}

	recent := errored
	if len(recent) > recentFailuresLimit {
		recent = recent[len(recent)-recentFailuresLimit:]
	}
	recentErrors := make([]models.ModelCallError, len(recent))
	for i, c := range recent {
		recentErrors[i] = models.ModelCallError{
			Model:     c.Model,
			Provider:  c.Provider,
			Error:     c.Error,
			Timestamp: c.Timestamp,
		}
	}

	return models.ErrorRateSnapshot{
		RecentCalls:      len(calls),
		Errors:           len(errored),
		ErrorRate:        rate,
		ErrorsByProvider: byProvider,
		RecentErrors:     recentErrors,
	}
}

func (a *Aggregator) kgStatistics(ctx context.Context) models.KGStatisticsSnapshot {
	if a.Changelog == nil {
		return models.KGStatisticsSnapshot{Error: "changelog store not configured"}
	}

	latest, ok, err := a.Changelog.LatestChangelogEntry(ctx)
	if err != nil {
		return models.KGStatisticsSnapshot{Error: fmt.Sprintf("latest changelog entry: %s", err)}
	}

	var currentVersion int64
	var latestChange *models.ChangelogEntry
	if ok {
		currentVersion = latest.Version
		latestChange = &latest
	}

	recent, err := a.Changelog.ChangelogEntriesAfter(ctx, currentVersion-10)
	if err != nil {
		return models.KGStatisticsSnapshot{Error: fmt.Sprintf("recent changelog entries: %s", err)}
	}

	return models.KGStatisticsSnapshot{
		CurrentVersion: currentVersion,
		RecentChanges:  len(recent),
		LatestChange:   latestChange,
	}
}

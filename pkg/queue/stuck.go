package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Default stuck-task detection parameters.
const (
	DefaultStuckThreshold  = 30 * time.Minute
	DefaultMonitorInterval = 5 * time.Minute
)

// StuckTaskReport summarizes one monitor pass.
type StuckTaskReport struct {
	StuckCount int
	TaskIDs    []string
}

// StuckTaskMonitor periodically scans a Store for in_progress tasks whose
// heartbeat has gone stale, and either resets them to pending for a retry
// or moves them to the dead-letter queue once retries are exhausted.
type StuckTaskMonitor struct {
	store          Store
	stuckThreshold time.Duration
	checkInterval  time.Duration
	autoRetry      bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStuckTaskMonitor constructs a monitor with the given thresholds. When
// autoRetry is false, stuck tasks are only logged unless they've exhausted
// retries (in which case they still move to dead-letter).
func NewStuckTaskMonitor(store Store, stuckThreshold, checkInterval time.Duration, autoRetry bool) *StuckTaskMonitor {
	if stuckThreshold <= 0 {
		stuckThreshold = DefaultStuckThreshold
	}
	if checkInterval <= 0 {
		checkInterval = DefaultMonitorInterval
	}
	return &StuckTaskMonitor{
		store:          store,
		stuckThreshold: stuckThreshold,
		checkInterval:  checkInterval,
		autoRetry:      autoRetry,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the monitor loop in a goroutine.
func (m *StuckTaskMonitor) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

// Stop signals the monitor to stop and waits for it to finish.
func (m *StuckTaskMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}

func (m *StuckTaskMonitor) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(m.checkInterval):
			report, err := m.Check(ctx)
			if err != nil {
				slog.Error("stuck task monitor error", "error", err)
				continue
			}
			if report.StuckCount > 0 {
				slog.Warn("stuck tasks detected", "count", report.StuckCount, "task_ids", report.TaskIDs)
			}
		}
	}
}

// Check runs one monitor pass immediately, without waiting for the ticker.
func (m *StuckTaskMonitor) Check(ctx context.Context) (StuckTaskReport, error) {
	stuck, err := m.store.StuckTasks(ctx, m.stuckThreshold)
	if err != nil {
		return StuckTaskReport{}, fmt.Errorf("listing stuck tasks: %w", err)
	}
	if len(stuck) == 0 {
		return StuckTaskReport{}, nil
	}

	report := StuckTaskReport{StuckCount: len(stuck)}
	reason := fmt.Sprintf("stuck task detected (no heartbeat for %s)", m.stuckThreshold)

	for _, task := range stuck {
		report.TaskIDs = append(report.TaskIDs, task.TaskID)

		if m.autoRetry && task.RetryCount < task.MaxRetries {
			if err := m.store.Fail(ctx, task.TaskID, reason, true); err != nil {
				slog.Error("failed to auto-retry stuck task", "task_id", task.TaskID, "error", err)
			}
			continue
		}
		if task.RetryCount >= task.MaxRetries {
			if err := m.store.Fail(ctx, task.TaskID, reason, false); err != nil {
				slog.Error("failed to move stuck task to dead-letter", "task_id", task.TaskID, "error", err)
			}
		}
	}
	return report, nil
}

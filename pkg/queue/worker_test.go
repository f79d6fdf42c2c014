package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraphRunner struct {
	result models.AgentState
	err    error
}

func (f *fakeGraphRunner) RunGraph(ctx context.Context, state models.AgentState, threadID string) (models.AgentState, error) {
	return f.result, f.err
}

type fakeMissionContinuer struct {
	result map[string]interface{}
	err    error
}

func (f *fakeMissionContinuer) RunMissionContinue(ctx context.Context, chatID string) (map[string]interface{}, error) {
	return f.result, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, cond(), "condition not met within %s", timeout)
}

func TestWorkerCompletesGraphRunTaskAndNotifiesFinalResponse(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.Enqueue(context.Background(), models.TaskTypeGraphRun,
		map[string]interface{}{"chat_id": "chat-1", "user_input": "hello"}, models.EnqueueOptions{})
	require.NoError(t, err)

	runner := &fakeGraphRunner{result: models.AgentState{FinalResponse: "done"}}
	notifier := &fakeNotifier{}
	w := NewWorker(store, runner, nil, notifier, models.TaskTypeGraphRun)
	w.pollInterval = 5 * time.Millisecond
	w.heartbeatInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() { cancel(); w.Stop() }()

	waitForCondition(t, time.Second, func() bool {
		dead, _ := store.DeadLetterTasks(context.Background(), 10)
		return len(dead) == 0 && len(notifier.sent()) > 0
	})

	assert.Contains(t, notifier.sent(), "done")
	_ = id
}

func TestWorkerEnqueuesMissionContinueWhenApprovalRequired(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Enqueue(context.Background(), models.TaskTypeGraphRun,
		map[string]interface{}{"chat_id": "chat-1", "user_input": "add node"}, models.EnqueueOptions{})
	require.NoError(t, err)

	runner := &fakeGraphRunner{result: models.AgentState{
		ApprovalRequired: true,
		DiffID:           "diff_1",
		FinalResponse:    "please approve",
	}}
	notifier := &fakeNotifier{}
	w := NewWorker(store, runner, nil, notifier, models.TaskTypeGraphRun)
	w.pollInterval = 5 * time.Millisecond
	w.heartbeatInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() { cancel(); w.Stop() }()

	waitForCondition(t, time.Second, func() bool {
		return len(notifier.sent()) > 0
	})

	// A mission_continue task should have been enqueued for follow-up.
	waitForCondition(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, task := range store.tasks {
			if task.TaskType == models.TaskTypeMissionContinue {
				return true
			}
		}
		return false
	})
}

func TestWorkerFailsTaskMissingChatID(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.Enqueue(context.Background(), models.TaskTypeGraphRun, map[string]interface{}{}, models.EnqueueOptions{})
	require.NoError(t, err)

	w := NewWorker(store, &fakeGraphRunner{}, nil, nil, models.TaskTypeGraphRun)
	w.pollInterval = 5 * time.Millisecond
	w.heartbeatInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() { cancel(); w.Stop() }()

	waitForCondition(t, time.Second, func() bool {
		dead, _ := store.DeadLetterTasks(context.Background(), 10)
		return len(dead) == 1 && dead[0].TaskID == id
	})
}

func TestWorkerRetriesGraphRunOnError(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Enqueue(context.Background(), models.TaskTypeGraphRun,
		map[string]interface{}{"chat_id": "chat-1"}, models.EnqueueOptions{})
	require.NoError(t, err)

	runner := &fakeGraphRunner{err: errors.New("model unavailable")}
	notifier := &fakeNotifier{}
	w := NewWorker(store, runner, nil, notifier, models.TaskTypeGraphRun)
	w.pollInterval = 5 * time.Millisecond
	w.heartbeatInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() { cancel(); w.Stop() }()

	waitForCondition(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, task := range store.tasks {
			if task.Status == models.TaskStatusPending && task.RetryCount > 0 {
				return true
			}
		}
		return false
	})
}

func TestWorkerProcessesMissionContinueTaskType(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Enqueue(context.Background(), models.TaskTypeMissionContinue,
		map[string]interface{}{"chat_id": "chat-1"}, models.EnqueueOptions{})
	require.NoError(t, err)

	continuer := &fakeMissionContinuer{result: map[string]interface{}{"ok": true}}
	w := NewWorker(store, nil, continuer, nil, "")
	w.pollInterval = 5 * time.Millisecond
	w.heartbeatInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	defer func() { cancel(); w.Stop() }()

	waitForCondition(t, time.Second, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, task := range store.tasks {
			if task.Status == models.TaskStatusCompleted {
				return true
			}
		}
		return false
	})
}

func TestStuckTaskMonitorMovesExhaustedRetriesToDeadLetter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, err := store.Enqueue(ctx, models.TaskTypeGraphRun, nil, models.EnqueueOptions{MaxRetries: 0})
	require.NoError(t, err)
	_, _ = store.Dequeue(ctx, "", 1)

	store.mu.Lock()
	stale := time.Now().UTC().Add(-time.Hour)
	store.tasks[id].HeartbeatAt = &stale
	store.mu.Unlock()

	monitor := NewStuckTaskMonitor(store, 30*time.Minute, time.Hour, false)
	report, err := monitor.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.StuckCount)

	dead, err := store.DeadLetterTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, id, dead[0].TaskID)
}

func TestStuckTaskMonitorAutoRetriesWhenRetriesRemain(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, err := store.Enqueue(ctx, models.TaskTypeGraphRun, nil, models.EnqueueOptions{MaxRetries: 3})
	require.NoError(t, err)
	_, _ = store.Dequeue(ctx, "", 1)

	store.mu.Lock()
	stale := time.Now().UTC().Add(-time.Hour)
	store.tasks[id].HeartbeatAt = &stale
	store.mu.Unlock()

	monitor := NewStuckTaskMonitor(store, 30*time.Minute, time.Hour, true)
	report, err := monitor.Check(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.StuckCount)

	store.mu.Lock()
	status := store.tasks[id].Status
	store.mu.Unlock()
	assert.Equal(t, models.TaskStatusPending, status)
}

func TestStuckTaskMonitorNoOpWhenNothingStuck(t *testing.T) {
	store := NewMemoryStore()
	monitor := NewStuckTaskMonitor(store, 30*time.Minute, time.Hour, false)
	report, err := monitor.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.StuckCount)
}

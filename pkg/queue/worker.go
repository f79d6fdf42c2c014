package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmeth990/kgctl/pkg/models"
)

// Fixed poll/heartbeat cadence — the worker loop polls on a flat interval
// rather than exponential backoff.
const (
	DefaultPollInterval      = 2 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

// GraphRunner executes one supervisor turn for a graph_run task (built by
// pkg/supervisor).
type GraphRunner interface {
	RunGraph(ctx context.Context, state models.AgentState, threadID string) (models.AgentState, error)
}

// MissionContinuer runs one autonomous expansion cycle while a key decision
// is pending approval.
type MissionContinuer interface {
	RunMissionContinue(ctx context.Context, chatID string) (map[string]interface{}, error)
}

// Notifier delivers a chat-facing message. A nil Notifier disables delivery
// without the worker needing to branch on it everywhere.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Worker polls a Store on a fixed interval and dispatches claimed tasks by
// task_type to a GraphRunner or MissionContinuer.
type Worker struct {
	store             Store
	graphRunner       GraphRunner
	missionContinuer  MissionContinuer
	notifier          Notifier
	taskType          models.TaskType // empty means any type
	pollInterval      time.Duration
	heartbeatInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorker constructs a Worker. notifier may be nil. taskType may be empty
// to process any task type.
func NewWorker(store Store, graphRunner GraphRunner, missionContinuer MissionContinuer, notifier Notifier, taskType models.TaskType) *Worker {
	return &Worker{
		store:             store,
		graphRunner:       graphRunner,
		missionContinuer:  missionContinuer,
		notifier:          notifier,
		taskType:          taskType,
		pollInterval:      DefaultPollInterval,
		heartbeatInterval: DefaultHeartbeatInterval,
		stopCh:            make(chan struct{}),
	}
}

// Start begins the worker polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("component", "queue_worker", "task_type", string(w.taskType))
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker stopping")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker stopping")
			return
		default:
		}

		tasks, err := w.store.Dequeue(ctx, w.taskType, 1)
		if err != nil {
			if errors.Is(err, ErrNoTasksAvailable) {
				w.sleep(w.pollInterval)
				continue
			}
			log.Error("dequeue error", "error", err)
			w.sleep(w.pollInterval)
			continue
		}

		for _, task := range tasks {
			w.processOne(ctx, task)
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) processOne(ctx context.Context, task models.Task) {
	log := slog.With("task_id", task.TaskID, "task_type", string(task.TaskType))

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	go w.runHeartbeat(heartbeatCtx, task.TaskID)
	defer stopHeartbeat()

	switch task.TaskType {
	case models.TaskTypeMissionContinue:
		w.processMissionContinue(ctx, task)
	default:
		w.processGraphRun(ctx, task)
	}

	log.Info("task processing complete")
}

func (w *Worker) processMissionContinue(ctx context.Context, task models.Task) {
	chatID, _ := task.Payload["chat_id"].(string)
	if chatID == "" {
		_ = w.store.Fail(ctx, task.TaskID, "missing chat_id in payload", false)
		return
	}
	if w.missionContinuer == nil {
		_ = w.store.Fail(ctx, task.TaskID, "no mission continuer configured", true)
		return
	}

	result, err := w.missionContinuer.RunMissionContinue(ctx, chatID)
	if err != nil {
		_ = w.store.Fail(ctx, task.TaskID, err.Error(), true)
		return
	}
	_ = w.store.Complete(ctx, task.TaskID, result)
}

func (w *Worker) processGraphRun(ctx context.Context, task models.Task) {
	chatID, _ := task.Payload["chat_id"].(string)
	if chatID == "" {
		_ = w.store.Fail(ctx, task.TaskID, "missing chat_id in payload", false)
		return
	}
	if w.graphRunner == nil {
		_ = w.store.Fail(ctx, task.TaskID, "no graph runner configured", true)
		return
	}

	initial := stateFromPayload(task.Payload, chatID)
	result, err := w.graphRunner.RunGraph(ctx, initial, chatID)
	if err != nil {
		w.notify(ctx, chatID, fmt.Sprintf("Error processing command: %s", truncate(err.Error(), 200)))
		_ = w.store.Fail(ctx, task.TaskID, err.Error(), true)
		return
	}

	w.respond(ctx, chatID, result, task.TaskID)

	_ = w.store.Complete(ctx, task.TaskID, map[string]interface{}{
		"final_response": result.FinalResponse,
		"error":          result.Error,
	})
}

// respond sends the chat-facing reply for a completed graph run and, when a
// key decision is pending approval, enqueues a mission_continue task so
// autonomous work keeps progressing while the user decides.
func (w *Worker) respond(ctx context.Context, chatID string, result models.AgentState, taskID string) {
	switch {
	case result.ApprovalRequired && (result.DiffID != "" || result.ProposedDiff != nil):
		text := result.FinalResponse
		if text == "" {
			text = "Please approve or reject the proposed changes."
		}
		w.notify(ctx, chatID, text)
		if _, err := w.store.Enqueue(ctx, models.TaskTypeMissionContinue,
			map[string]interface{}{"chat_id": chatID}, models.EnqueueOptions{}); err != nil {
			slog.Warn("could not enqueue mission_continue", "chat_id", chatID, "error", err)
		}
	case result.FinalResponse != "":
		w.notify(ctx, chatID, result.FinalResponse)
	case result.Error != "":
		w.notify(ctx, chatID, fmt.Sprintf("Error: %s", result.Error))
	default:
		w.notify(ctx, chatID, "Processing complete.")
	}
}

func (w *Worker) notify(ctx context.Context, chatID, text string) {
	if w.notifier == nil {
		return
	}
	if err := w.notifier.SendMessage(ctx, chatID, text); err != nil {
		slog.Warn("failed to send chat notification", "chat_id", chatID, "error", err)
	}
}

func (w *Worker) runHeartbeat(ctx context.Context, taskID string) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.Heartbeat(ctx, taskID); err != nil {
				slog.Warn("heartbeat update failed", "task_id", taskID, "error", err)
			}
		}
	}
}

func stateFromPayload(payload map[string]interface{}, chatID string) models.AgentState {
	state := models.AgentState{ChatID: chatID}
	if v, ok := payload["user_input"].(string); ok {
		state.UserInput = v
	}
	if v, ok := payload["intent"].(string); ok {
		state.Intent = models.Intent(v)
	}
	if v, ok := payload["task_queue"].([]string); ok {
		state.TaskQueue = v
	}
	if v, ok := payload["working_notes"].(map[string]interface{}); ok {
		state.WorkingNotes = v
	}
	if v, ok := payload["diff_id"].(string); ok {
		state.DiffID = v
	}
	if v, ok := payload["approval_required"].(bool); ok {
		state.ApprovalRequired = v
	}
	if v, ok := payload["approval_decision"].(string); ok {
		state.ApprovalDecision = models.ApprovalDecision(v)
	}
	return state
}

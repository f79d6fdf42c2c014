package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cmeth990/kgctl/pkg/models"
)

// SQLStore is the durable Postgres-backed Store. It expects the task_queue
// table created by pkg/database's migrations.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open *sql.DB (pgx stdlib driver) as a Store.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Enqueue(ctx context.Context, taskType models.TaskType, payload map[string]interface{}, opts models.EnqueueOptions) (string, error) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling task payload: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_queue (
			task_id, task_type, payload, status, created_at, updated_at,
			retry_count, max_retries, domain, source, agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, string(taskType), payloadJSON, string(models.TaskStatusPending), now, now,
		0, maxRetries, nullable(opts.Domain), nullable(opts.Source), nullable(opts.Agent))
	if err != nil {
		return "", fmt.Errorf("enqueueing task: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Dequeue(ctx context.Context, taskType models.TaskType, limit int) ([]models.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning dequeue tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rows *sql.Rows
	if taskType != "" {
		rows, err = tx.QueryContext(ctx, `
			SELECT task_id FROM task_queue
			WHERE status = $1 AND task_type = $2
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		`, string(models.TaskStatusPending), string(taskType), limit)
	} else {
		rows, err = tx.QueryContext(ctx, `
			SELECT task_id FROM task_queue
			WHERE status = $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, string(models.TaskStatusPending), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting pending tasks: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scanning task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	if len(ids) == 0 {
		return nil, ErrNoTasksAvailable
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE task_queue
		SET status = $1, updated_at = $2, started_at = COALESCE(started_at, $3), heartbeat_at = $4
		WHERE task_id = ANY($5)
	`, string(models.TaskStatusInProgress), now, now, now, pqStringArray(ids)); err != nil {
		return nil, fmt.Errorf("claiming tasks: %w", err)
	}

	claimed := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := scanTaskByID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, task)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing dequeue: %w", err)
	}
	return claimed, nil
}

func (s *SQLStore) Complete(ctx context.Context, taskID string, result map[string]interface{}) error {
	var resultJSON []byte
	if result != nil {
		var err error
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling task result: %w", err)
		}
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE task_queue
		SET status = $1, updated_at = $2, completed_at = $3, result = $4
		WHERE task_id = $5
	`, string(models.TaskStatusCompleted), now, now, resultJSON, taskID)
	return err
}

func (s *SQLStore) Fail(ctx context.Context, taskID string, errMsg string, retry bool) error {
	var retryCount, maxRetries int
	err := s.db.QueryRowContext(ctx,
		`SELECT retry_count, max_retries FROM task_queue WHERE task_id = $1`, taskID,
	).Scan(&retryCount, &maxRetries)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("reading retry count: %w", err)
	}

	now := time.Now().UTC()
	msg := truncate(errMsg, errorTail)

	if retry && retryCount < maxRetries {
		_, err = s.db.ExecContext(ctx, `
			UPDATE task_queue
			SET status = $1, updated_at = $2, retry_count = retry_count + 1, error = $3,
				started_at = NULL, heartbeat_at = NULL
			WHERE task_id = $4
		`, string(models.TaskStatusPending), now, msg, taskID)
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE task_queue
		SET status = $1, updated_at = $2, error = $3, completed_at = $4
		WHERE task_id = $5
	`, string(models.TaskStatusDeadLetter), now, msg, now, taskID)
	return err
}

func (s *SQLStore) Triage(ctx context.Context, taskID string, action TriageAction, updatedPayload map[string]interface{}) error {
	now := time.Now().UTC()

	switch action {
	case TriageSkip:
		resultJSON, err := json.Marshal(map[string]interface{}{"skipped": true})
		if err != nil {
			return fmt.Errorf("marshaling skip result: %w", err)
		}
		res, err := s.db.ExecContext(ctx, `
			UPDATE task_queue
			SET status = $1, updated_at = $2, completed_at = $3, result = $4, error = NULL
			WHERE task_id = $5
		`, string(models.TaskStatusCompleted), now, now, resultJSON, taskID)
		return checkTriageRowsAffected(res, err)

	case TriageUpdatePayload:
		payloadJSON, err := json.Marshal(updatedPayload)
		if err != nil {
			return fmt.Errorf("marshaling updated payload: %w", err)
		}
		res, err := s.db.ExecContext(ctx, `
			UPDATE task_queue
			SET payload = $1, status = $2, updated_at = $3, error = NULL,
				started_at = NULL, heartbeat_at = NULL, completed_at = NULL
			WHERE task_id = $4
		`, payloadJSON, string(models.TaskStatusPending), now, taskID)
		return checkTriageRowsAffected(res, err)

	case TriageRetry:
		res, err := s.db.ExecContext(ctx, `
			UPDATE task_queue
			SET status = $1, updated_at = $2, error = NULL,
				started_at = NULL, heartbeat_at = NULL, completed_at = NULL
			WHERE task_id = $3
		`, string(models.TaskStatusPending), now, taskID)
		return checkTriageRowsAffected(res, err)

	default:
		return fmt.Errorf("unrecognized triage action: %q", action)
	}
}

func checkTriageRowsAffected(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("applying triage decision: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking triage result: %w", err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *SQLStore) Heartbeat(ctx context.Context, taskID string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE task_queue
		SET heartbeat_at = $1, updated_at = $2
		WHERE task_id = $3 AND status = $4
	`, now, now, taskID, string(models.TaskStatusInProgress))
	return err
}

func (s *SQLStore) StuckTasks(ctx context.Context, threshold time.Duration) ([]models.Task, error) {
	cutoff := time.Now().UTC().Add(-threshold)
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, task_type, payload, status, created_at, updated_at,
			started_at, completed_at, retry_count, max_retries,
			error, result, domain, source, agent, heartbeat_at
		FROM task_queue
		WHERE status = $1 AND (heartbeat_at IS NULL OR heartbeat_at < $2)
		ORDER BY updated_at ASC
	`, string(models.TaskStatusInProgress), cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stuck tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *SQLStore) DeadLetterTasks(ctx context.Context, limit int) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, task_type, payload, status, created_at, updated_at,
			started_at, completed_at, retry_count, max_retries,
			error, result, domain, source, agent, heartbeat_at
		FROM task_queue
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`, string(models.TaskStatusDeadLetter), limit)
	if err != nil {
		return nil, fmt.Errorf("querying dead-letter tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func scanTaskByID(ctx context.Context, tx *sql.Tx, id string) (models.Task, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT task_id, task_type, payload, status, created_at, updated_at,
			started_at, completed_at, retry_count, max_retries,
			error, result, domain, source, agent, heartbeat_at
		FROM task_queue
		WHERE task_id = $1
	`, id)
	return scanTaskRow(row)
}

// rowScanner abstracts *sql.Row / *sql.Rows so scanTaskRow works for both.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(row rowScanner) (models.Task, error) {
	var (
		t                              models.Task
		taskType, status               string
		payloadJSON, resultJSON        []byte
		domain, source, agent, errText sql.NullString
		startedAt, completedAt         sql.NullTime
		heartbeatAt                    sql.NullTime
	)

	if err := row.Scan(
		&t.TaskID, &taskType, &payloadJSON, &status, &t.CreatedAt, &t.UpdatedAt,
		&startedAt, &completedAt, &t.RetryCount, &t.MaxRetries,
		&errText, &resultJSON, &domain, &source, &agent, &heartbeatAt,
	); err != nil {
		return models.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.TaskType = models.TaskType(taskType)
	t.Status = models.TaskStatus(status)
	t.Domain = domain.String
	t.Source = source.String
	t.Agent = agent.String
	t.Error = errText.String

	if startedAt.Valid {
		v := startedAt.Time
		t.StartedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	if heartbeatAt.Valid {
		v := heartbeatAt.Time
		t.HeartbeatAt = &v
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &t.Payload); err != nil {
			return models.Task{}, fmt.Errorf("unmarshaling payload: %w", err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &t.Result); err != nil {
			return models.Task{}, fmt.Errorf("unmarshaling result: %w", err)
		}
	}
	return t, nil
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// pqStringArray renders a Go string slice as a Postgres text array literal
// for use with = ANY($n), avoiding a direct lib/pq dependency just for array
// binding since pgx/stdlib accepts this literal form via database/sql.
func pqStringArray(ids []string) string {
	out := "{"
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += `"` + id + `"`
	}
	return out + "}"
}

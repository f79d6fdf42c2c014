package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmeth990/kgctl/pkg/models"
)

// ChangelogStore is the Postgres-backed kgdiff.ChangelogStore
// implementation: a durable append-only table so changelog history
// survives process restarts.
type ChangelogStore struct {
	db *sql.DB
}

// NewChangelogStore wraps db as a ChangelogStore.
func NewChangelogStore(db *sql.DB) *ChangelogStore { return &ChangelogStore{db: db} }

// NextVersion returns the next changelog version number: one past the
// current max, or 1 if the table is empty.
func (c *ChangelogStore) NextVersion(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := c.db.QueryRowContext(ctx, `SELECT MAX(version) FROM changelog_entries`).Scan(&max); err != nil {
		return 0, fmt.Errorf("reading current changelog version: %w", err)
	}
	if !max.Valid {
		return 1, nil
	}
	return max.Int64 + 1, nil
}

// AppendChangelogEntry inserts entry, whose Version must already be set
// (by NextVersion) by the caller (kgdiff.RecordKGChange).
func (c *ChangelogStore) AppendChangelogEntry(ctx context.Context, entry models.ChangelogEntry) error {
	diffJSON, err := json.Marshal(entry.Diff)
	if err != nil {
		return fmt.Errorf("marshaling changelog diff: %w", err)
	}
	var resultJSON []byte
	if entry.Result != nil {
		resultJSON, err = json.Marshal(entry.Result)
		if err != nil {
			return fmt.Errorf("marshaling changelog result: %w", err)
		}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO changelog_entries (
			version, diff_id, timestamp, diff, source_agent, source_document, reason, result, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.Version, entry.DiffID, entry.Timestamp, diffJSON,
		nullable(entry.SourceAgent), nullable(entry.SourceDocument), nullable(entry.Reason),
		resultJSON, entry.Summary)
	if err != nil {
		return fmt.Errorf("appending changelog entry: %w", err)
	}
	return nil
}

// ChangelogEntriesAfter returns every entry with version > version, in
// ascending version order (kgdiff.RollbackTo replays them in reverse).
func (c *ChangelogStore) ChangelogEntriesAfter(ctx context.Context, version int64) ([]models.ChangelogEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT version, diff_id, timestamp, diff, source_agent, source_document, reason, result, summary
		FROM changelog_entries WHERE version > $1 ORDER BY version ASC
	`, version)
	if err != nil {
		return nil, fmt.Errorf("querying changelog entries after %d: %w", version, err)
	}
	defer rows.Close()
	return scanChangelogEntries(rows)
}

// LatestChangelogEntry returns the highest-version entry, if any.
func (c *ChangelogStore) LatestChangelogEntry(ctx context.Context) (models.ChangelogEntry, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT version, diff_id, timestamp, diff, source_agent, source_document, reason, result, summary
		FROM changelog_entries ORDER BY version DESC LIMIT 1
	`)
	entry, err := scanChangelogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChangelogEntry{}, false, nil
	}
	if err != nil {
		return models.ChangelogEntry{}, false, err
	}
	return entry, true, nil
}

func scanChangelogEntry(row nodeScanner) (models.ChangelogEntry, error) {
	var e models.ChangelogEntry
	var diffJSON, resultJSON []byte
	var sourceAgent, sourceDocument, reason sql.NullString

	if err := row.Scan(
		&e.Version, &e.DiffID, &e.Timestamp, &diffJSON,
		&sourceAgent, &sourceDocument, &reason, &resultJSON, &e.Summary,
	); err != nil {
		return models.ChangelogEntry{}, err
	}
	e.SourceAgent = sourceAgent.String
	e.SourceDocument = sourceDocument.String
	e.Reason = reason.String

	if err := json.Unmarshal(diffJSON, &e.Diff); err != nil {
		return models.ChangelogEntry{}, fmt.Errorf("unmarshaling changelog diff: %w", err)
	}
	if len(resultJSON) > 0 {
		var result models.ApplyResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return models.ChangelogEntry{}, fmt.Errorf("unmarshaling changelog result: %w", err)
		}
		e.Result = &result
	}
	return e, nil
}

func scanChangelogEntries(rows *sql.Rows) ([]models.ChangelogEntry, error) {
	var entries []models.ChangelogEntry
	for rows.Next() {
		e, err := scanChangelogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

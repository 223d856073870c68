package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Attempt is one processed id within a run.
type Attempt struct {
	ID         int64
	RunID      string
	ContentID  string
	Target     string
	Outcome    string
	Kind       string
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the attempt took.
func (a Attempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() || a.StartedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	ContentID string
	RunID     string
	Outcome   string
	// Limit caps the number of rows; zero means no limit.
	Limit int
}

const timeLayout = time.RFC3339Nano

// RecordAttempt appends attempt.
func (s *Store) RecordAttempt(ctx context.Context, attempt Attempt) error {
	if strings.TrimSpace(attempt.ContentID) == "" {
		return errors.New("journal: content id is required")
	}
	if attempt.FinishedAt.IsZero() {
		attempt.FinishedAt = time.Now()
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = attempt.FinishedAt
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO attempts (run_id, content_id, target, outcome, kind, detail, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			attempt.RunID,
			attempt.ContentID,
			attempt.Target,
			attempt.Outcome,
			attempt.Kind,
			attempt.Detail,
			attempt.StartedAt.UTC().Format(timeLayout),
			attempt.FinishedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		return nil
	})
}

// List returns attempts matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Attempt, error) {
	var (
		clauses []string
		args    []any
	)
	if v := strings.TrimSpace(filter.ContentID); v != "" {
		clauses = append(clauses, "content_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.RunID); v != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Outcome); v != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, v)
	}

	query := `SELECT id, run_id, content_id, target, outcome, kind, detail, started_at, finished_at FROM attempts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a                 Attempt
			started, finished string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.ContentID, &a.Target, &a.Outcome, &a.Kind, &a.Detail, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.StartedAt = parseTime(started)
		a.FinishedAt = parseTime(finished)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

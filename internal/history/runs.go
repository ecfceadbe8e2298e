package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultListLimit = 20

// RecordRun stores a run and all of its job records in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("record run: id is required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, finished_at, cancelled, progress, group_size)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, formatTime(run.Started), formatTime(run.Finished), boolToInt(run.Cancelled), run.Progress, run.GroupSize,
		); err != nil {
			return fmt.Errorf("insert run %s: %w", run.ID, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO job_results (run_id, job_index, video_path, status, output_path, cues, frames, duration_ms, error_message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare job insert: %w", err)
		}
		defer stmt.Close()

		for _, job := range run.Jobs {
			if _, err := stmt.ExecContext(ctx,
				run.ID, job.Index, job.Video, job.Status, nullString(job.Output),
				job.Cues, job.Frames, job.Duration.Milliseconds(), nullString(job.Error),
			); err != nil {
				return fmt.Errorf("insert job %d of run %s: %w", job.Index, run.ID, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs first. A limit of zero or less uses
// the default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.started_at, r.finished_at, r.cancelled, r.progress,
		        COUNT(j.job_index),
		        COALESCE(SUM(CASE WHEN j.status = ? THEN j.cues ELSE 0 END), 0)
		   FROM runs r
		   LEFT JOIN job_results j ON j.run_id = r.id
		  GROUP BY r.id
		  ORDER BY r.started_at DESC, r.id
		  LIMIT ?`, StatusSucceeded, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			summary              RunSummary
			startedRaw, finished string
			cancelled            int
		)
		if err := rows.Scan(&summary.ID, &startedRaw, &finished, &cancelled, &summary.Progress, &summary.Jobs, &summary.Cues); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		summary.Started = parseTime(startedRaw)
		summary.Finished = parseTime(finished)
		summary.Cancelled = cancelled != 0
		runs = append(runs, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		counts, err := s.statusCounts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Counts = counts
	}
	return runs, nil
}

func (s *Store) statusCounts(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM job_results WHERE run_id = ? GROUP BY status", runID)
	if err != nil {
		return nil, fmt.Errorf("count statuses for %s: %w", runID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// GetRun loads a run and its jobs. id may be a unique prefix of a run ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		run                Run
		startedRaw, finRaw string
		cancelled          int
	)
	err = s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, cancelled, progress, group_size FROM runs WHERE id = ?", fullID,
	).Scan(&run.ID, &startedRaw, &finRaw, &cancelled, &run.Progress, &run.GroupSize)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", fullID, err)
	}
	run.Started = parseTime(startedRaw)
	run.Finished = parseTime(finRaw)
	run.Cancelled = cancelled != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT job_index, video_path, status, output_path, cues, frames, duration_ms, error_message
		   FROM job_results WHERE run_id = ? ORDER BY job_index`, fullID)
	if err != nil {
		return nil, fmt.Errorf("list jobs for %s: %w", fullID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			job        JobRecord
			output     sql.NullString
			errMessage sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&job.Index, &job.Video, &job.Status, &output, &job.Cues, &job.Frames, &durationMS, &errMessage); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Output = output.String
		job.Error = errMessage.String
		job.Duration = time.Duration(durationMS) * time.Millisecond
		run.Jobs = append(run.Jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return &run, nil
}

func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM runs WHERE id = ? OR substr(id, 1, ?) = ? ORDER BY id = ? DESC LIMIT 2",
		id, len(id), id, id)
	if err != nil {
		return "", fmt.Errorf("resolve run id: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var match string
		if err := rows.Scan(&match); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch {
	case len(matches) == 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case matches[0] == id, len(matches) == 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Prune deletes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE started_at < ?", formatTime(cutoff))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return removed, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

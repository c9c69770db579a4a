package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
)

// latestRevisions ranks every revision so rn = 1 picks the current one
// per task.
const latestRevisions = `
	SELECT ` + recordColumns + `, ROW_NUMBER() OVER (
		PARTITION BY task_id
		ORDER BY modified_at DESC, ingested_at DESC
	) AS rn
	FROM task_records`

// LatestCompleted returns the current revision of every completed task,
// ordered by completion time.
func (s *Store) LatestCompleted(ctx context.Context) ([]TaskRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM (%s) ranked
		WHERE rn = 1 AND completed_at IS NOT NULL
		ORDER BY completed_at, task_id`,
		recordColumns, latestRevisions,
	)
	return s.queryRecords(ctx, query)
}

// LatestCompletedForProject is LatestCompleted narrowed to one project.
func (s *Store) LatestCompletedForProject(ctx context.Context, projectID string) ([]TaskRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM (%s) ranked
		WHERE rn = 1 AND completed_at IS NOT NULL AND project_id = %s
		ORDER BY completed_at, task_id`,
		recordColumns, latestRevisions, s.drv.Placeholder(1),
	)
	return s.queryRecords(ctx, query, projectID)
}

// Watermark returns the newest modified_at across all stored revisions,
// or nil when the store is empty.
func (s *Store) Watermark(ctx context.Context) (*time.Time, error) {
	var raw sql.NullString
	row := s.drv.QueryRow(ctx, "SELECT MAX(modified_at) FROM task_records")
	if err := row.Scan(&raw); err != nil {
		return nil, syncerrors.Wrap(err, "read watermark")
	}
	return parseTimePtr(raw)
}

// LatestProjectCompletion returns the newest completed_at seen for a
// project, or nil when none of its tasks have completed.
func (s *Store) LatestProjectCompletion(ctx context.Context, projectID string) (*time.Time, error) {
	var raw sql.NullString
	row := s.drv.QueryRow(ctx,
		"SELECT MAX(completed_at) FROM task_records WHERE project_id = "+s.drv.Placeholder(1),
		projectID,
	)
	if err := row.Scan(&raw); err != nil {
		return nil, syncerrors.Wrap(err, "read project completion")
	}
	return parseTimePtr(raw)
}

// MonthlyRollup aggregates completed work per assignee for one month.
type MonthlyRollup struct {
	Month            string
	AssigneeName     string
	TaskCount        int
	EstimatedMinutes float64
	ActualMinutes    float64
}

// RollupMonth summarizes the latest completed revisions whose completion
// falls inside the given month ("2006-01").
func (s *Store) RollupMonth(ctx context.Context, month string) ([]MonthlyRollup, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("parse month %q: %w", month, err)
	}
	end := start.AddDate(0, 1, 0)

	query := fmt.Sprintf(`
		SELECT COALESCE(assignee_name, ''),
		       COUNT(*),
		       COALESCE(SUM(estimated_minutes), 0),
		       COALESCE(SUM(actual_minutes), 0)
		FROM (%s) ranked
		WHERE rn = 1
		  AND completed_at IS NOT NULL
		  AND completed_at >= %s AND completed_at < %s
		GROUP BY COALESCE(assignee_name, '')
		ORDER BY COALESCE(assignee_name, '')`,
		latestRevisions, s.drv.Placeholder(1), s.drv.Placeholder(2),
	)

	rows, err := s.drv.Query(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, syncerrors.Wrap(err, "rollup month")
	}
	defer func() { _ = rows.Close() }()

	var out []MonthlyRollup
	for rows.Next() {
		r := MonthlyRollup{Month: month}
		if err := rows.Scan(&r.AssigneeName, &r.TaskCount, &r.EstimatedMinutes, &r.ActualMinutes); err != nil {
			return nil, syncerrors.Wrap(err, "scan rollup row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, syncerrors.Wrap(err, "iterate rollup")
	}
	return out, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]TaskRecord, error) {
	rows, err := s.drv.Query(ctx, query, args...)
	if err != nil {
		return nil, syncerrors.Wrap(err, "query records")
	}
	defer func() { _ = rows.Close() }()

	var out []TaskRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, syncerrors.Wrap(err, "scan record")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, syncerrors.Wrap(err, "iterate records")
	}
	return out, nil
}

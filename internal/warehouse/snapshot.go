package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
)

// OpenTaskSnapshot is one still-open task captured on a given day.
type OpenTaskSnapshot struct {
	SnapshotDate     string // "2006-01-02"
	TaskID           string
	TaskName         string
	ProjectID        string
	ProjectName      string
	AssigneeID       *string
	AssigneeName     *string
	DueOn            *string
	IsOverdue        bool
	HasTimeFields    bool
	EstimatedMinutes *float64
	ActualMinutes    *float64
	NumSubtasks      int
	CapturedAt       time.Time
}

// AppendSnapshots writes a day's snapshots in one transaction. Rows whose
// (snapshot_date, task_id) already exist are left alone, so re-running a
// snapshot for the same day is a no-op.
func (s *Store) AppendSnapshots(ctx context.Context, snaps []OpenTaskSnapshot) (int, error) {
	if len(snaps) == 0 {
		return 0, nil
	}

	tx, err := s.drv.BeginTx(ctx, nil)
	if err != nil {
		return 0, syncerrors.ErrStoreWrite("begin snapshot", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT INTO open_task_snapshots (
			snapshot_date, task_id, task_name, project_id, project_name,
			assignee_id, assignee_name, due_on, is_overdue, has_time_fields,
			estimated_minutes, actual_minutes, num_subtasks, captured_at
		) VALUES (%s)
		ON CONFLICT (snapshot_date, task_id) DO NOTHING`,
		s.placeholders(14),
	)

	written := 0
	for _, sn := range snaps {
		result, err := tx.Exec(ctx, query,
			sn.SnapshotDate, sn.TaskID, sn.TaskName, sn.ProjectID, sn.ProjectName,
			sn.AssigneeID, sn.AssigneeName, sn.DueOn, boolInt(sn.IsOverdue), boolInt(sn.HasTimeFields),
			sn.EstimatedMinutes, sn.ActualMinutes, sn.NumSubtasks,
			formatTime(sn.CapturedAt),
		)
		if err != nil {
			return written, syncerrors.ErrStoreWrite("append snapshot", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			written += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return written, syncerrors.ErrStoreWrite("commit snapshot", err)
	}
	return written, nil
}

// SnapshotsForDate returns the captured snapshots for one day.
func (s *Store) SnapshotsForDate(ctx context.Context, date string) ([]OpenTaskSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT snapshot_date, task_id, task_name, project_id, project_name,
		       assignee_id, assignee_name, due_on, is_overdue, has_time_fields,
		       estimated_minutes, actual_minutes, num_subtasks, captured_at
		FROM open_task_snapshots
		WHERE snapshot_date = %s
		ORDER BY project_id, task_id`,
		s.drv.Placeholder(1),
	)

	rows, err := s.drv.Query(ctx, query, date)
	if err != nil {
		return nil, syncerrors.Wrap(err, "query snapshots")
	}
	defer func() { _ = rows.Close() }()

	var out []OpenTaskSnapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, syncerrors.Wrap(err, "iterate snapshots")
	}
	return out, nil
}

func scanSnapshot(rows *sql.Rows) (OpenTaskSnapshot, error) {
	var (
		sn                          OpenTaskSnapshot
		assigneeID, assignee, dueOn sql.NullString
		estimated, actual           sql.NullFloat64
		overdue, hasFields          int
		captured                    string
	)
	if err := rows.Scan(
		&sn.SnapshotDate, &sn.TaskID, &sn.TaskName, &sn.ProjectID, &sn.ProjectName,
		&assigneeID, &assignee, &dueOn, &overdue, &hasFields,
		&estimated, &actual, &sn.NumSubtasks, &captured,
	); err != nil {
		return OpenTaskSnapshot{}, syncerrors.Wrap(err, "scan snapshot")
	}
	sn.AssigneeID = nullStr(assigneeID)
	sn.AssigneeName = nullStr(assignee)
	sn.DueOn = nullStr(dueOn)
	sn.IsOverdue = overdue != 0
	sn.HasTimeFields = hasFields != 0
	sn.EstimatedMinutes = nullFloat(estimated)
	sn.ActualMinutes = nullFloat(actual)

	t, err := parseTime(captured)
	if err != nil {
		return OpenTaskSnapshot{}, err
	}
	sn.CapturedAt = t
	return sn, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

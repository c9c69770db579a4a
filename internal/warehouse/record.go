package warehouse

import (
	"database/sql"
	"fmt"
	"time"
)

// timeLayout is the storage format for timestamps. Everything is written
// in UTC with millisecond precision so string comparison orders correctly.
const timeLayout = "2006-01-02T15:04:05.000Z"

// TaskRecord is one revision of a task as observed at fetch time.
type TaskRecord struct {
	TaskID   string
	TaskName string

	// ParentTaskID is set for subtask records. A dangling parent id is
	// tolerated; the parent may never have been ingested.
	ParentTaskID *string

	ProjectID        string
	ProjectName      string
	AssigneeID       *string
	AssigneeName     *string
	DueOn            *string
	EstimatedMinutes *float64
	ActualMinutes    *float64
	NumSubtasks      int
	CompletedAt      *time.Time
	CreatedAt        *time.Time
	ModifiedAt       time.Time
	IngestedAt       time.Time
}

// recordColumns is the column list shared by task_records and
// task_records_staging, minus the staging batch_id.
const recordColumns = `task_id, task_name, parent_task_id, project_id,
	project_name, assignee_id, assignee_name, due_on, estimated_minutes,
	actual_minutes, num_subtasks, completed_at, created_at, modified_at,
	ingested_at`

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Older rows may carry second precision.
		t, err = time.Parse(time.RFC3339, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// scanRecord reads one row produced by a SELECT over recordColumns.
func scanRecord(rows *sql.Rows) (TaskRecord, error) {
	var (
		rec                      TaskRecord
		parentID                 sql.NullString
		assigneeID, assigneeName sql.NullString
		dueOn                    sql.NullString
		estimated, actual        sql.NullFloat64
		completedAt, createdAt   sql.NullString
		modifiedAt, ingestedAt   string
	)
	if err := rows.Scan(
		&rec.TaskID, &rec.TaskName, &parentID, &rec.ProjectID, &rec.ProjectName,
		&assigneeID, &assigneeName, &dueOn, &estimated, &actual,
		&rec.NumSubtasks, &completedAt, &createdAt, &modifiedAt, &ingestedAt,
	); err != nil {
		return TaskRecord{}, err
	}

	rec.ParentTaskID = nullStr(parentID)
	rec.AssigneeID = nullStr(assigneeID)
	rec.AssigneeName = nullStr(assigneeName)
	rec.DueOn = nullStr(dueOn)
	rec.EstimatedMinutes = nullFloat(estimated)
	rec.ActualMinutes = nullFloat(actual)

	var err error
	if rec.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return TaskRecord{}, err
	}
	if rec.CreatedAt, err = parseTimePtr(createdAt); err != nil {
		return TaskRecord{}, err
	}
	if rec.ModifiedAt, err = parseTime(modifiedAt); err != nil {
		return TaskRecord{}, err
	}
	if rec.IngestedAt, err = parseTime(ingestedAt); err != nil {
		return TaskRecord{}, err
	}
	return rec, nil
}

// recordArgs flattens a record into the recordColumns order.
func recordArgs(rec TaskRecord) []any {
	return []any{
		rec.TaskID, rec.TaskName, rec.ParentTaskID, rec.ProjectID,
		rec.ProjectName, rec.AssigneeID, rec.AssigneeName, rec.DueOn,
		rec.EstimatedMinutes, rec.ActualMinutes, rec.NumSubtasks,
		formatTimePtr(rec.CompletedAt), formatTimePtr(rec.CreatedAt),
		formatTime(rec.ModifiedAt), formatTime(rec.IngestedAt),
	}
}

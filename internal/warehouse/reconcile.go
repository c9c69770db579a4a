package warehouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
	"github.com/oknozoka/asanasync/internal/warehouse/driver"
)

// ReconcileResult reports what a merge did.
type ReconcileResult struct {
	BatchID string
	Staged  int
	Merged  int
	Skipped int
}

// Reconcile stages a batch of fetched records, deduplicates them, and
// merges the surviving revisions into task_records. The whole operation
// runs in one transaction so a failed run leaves the store untouched, and
// re-running the same batch merges nothing the second time.
func (s *Store) Reconcile(ctx context.Context, batch []TaskRecord) (ReconcileResult, error) {
	res := ReconcileResult{BatchID: uuid.NewString()}

	tx, err := s.drv.BeginTx(ctx, nil)
	if err != nil {
		return res, syncerrors.ErrStoreWrite("begin reconcile", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Staging rows from a crashed run are dead weight. Clear everything
	// before writing the new batch.
	if _, err := tx.Exec(ctx, "DELETE FROM task_records_staging"); err != nil {
		return res, syncerrors.ErrStoreWrite("purge staging", err)
	}

	ingested := time.Now().UTC()
	if err := s.stage(ctx, tx, res.BatchID, batch, ingested); err != nil {
		return res, err
	}
	res.Staged = len(batch)

	deduped, err := s.dedupedBatch(ctx, tx, res.BatchID)
	if err != nil {
		return res, err
	}

	for _, rec := range deduped {
		merged, err := s.mergeOne(ctx, tx, rec)
		if err != nil {
			return res, err
		}
		if merged {
			res.Merged++
		} else {
			res.Skipped++
		}
	}

	if _, err := tx.Exec(ctx,
		"DELETE FROM task_records_staging WHERE batch_id = "+s.drv.Placeholder(1),
		res.BatchID,
	); err != nil {
		return res, syncerrors.ErrStoreWrite("clear staged batch", err)
	}

	if err := tx.Commit(); err != nil {
		return res, syncerrors.ErrStoreWrite("commit reconcile", err)
	}
	return res, nil
}

func (s *Store) stage(ctx context.Context, tx driver.Tx, batchID string, batch []TaskRecord, ingested time.Time) error {
	query := fmt.Sprintf(
		"INSERT INTO task_records_staging (batch_id, %s) VALUES (%s)",
		recordColumns, s.placeholders(16),
	)
	for _, rec := range batch {
		rec.IngestedAt = ingested
		args := append([]any{batchID}, recordArgs(rec)...)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return syncerrors.ErrStoreWrite("stage record", err)
		}
	}
	return nil
}

// dedupedBatch keeps one row per task from the staged batch: the one with
// the newest modified_at.
func (s *Store) dedupedBatch(ctx context.Context, tx driver.Tx, batchID string) ([]TaskRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM (
			SELECT %s, ROW_NUMBER() OVER (
				PARTITION BY task_id
				ORDER BY modified_at DESC, ingested_at DESC
			) AS rn
			FROM task_records_staging
			WHERE batch_id = %s
		) ranked
		WHERE rn = 1`,
		recordColumns, recordColumns, s.drv.Placeholder(1),
	)

	rows, err := tx.Query(ctx, query, batchID)
	if err != nil {
		return nil, syncerrors.ErrStoreWrite("dedup staged batch", err)
	}
	defer func() { _ = rows.Close() }()

	var out []TaskRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, syncerrors.ErrStoreWrite("scan staged record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, syncerrors.ErrStoreWrite("iterate staged batch", err)
	}
	return out, nil
}

// mergeOne appends rec as a new revision unless the store already holds an
// equal or newer one. Time fields missing from the incoming revision are
// carried forward from the current one.
func (s *Store) mergeOne(ctx context.Context, tx driver.Tx, rec TaskRecord) (bool, error) {
	current, found, err := s.currentRevision(ctx, tx, rec.TaskID)
	if err != nil {
		return false, err
	}

	if found {
		if rec.ModifiedAt.Before(current.ModifiedAt) {
			return false, nil
		}
		if rec.EstimatedMinutes == nil {
			rec.EstimatedMinutes = current.EstimatedMinutes
		}
		if rec.ActualMinutes == nil {
			rec.ActualMinutes = current.ActualMinutes
		}
		if rec.ModifiedAt.Equal(current.ModifiedAt) && sameContent(rec, current) {
			return false, nil
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO task_records (%s) VALUES (%s)",
		recordColumns, s.placeholders(15),
	)
	if _, err := tx.Exec(ctx, query, recordArgs(rec)...); err != nil {
		return false, syncerrors.ErrStoreWrite("insert revision", err)
	}
	return true, nil
}

func (s *Store) currentRevision(ctx context.Context, tx driver.Tx, taskID string) (TaskRecord, bool, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM task_records
		WHERE task_id = %s
		ORDER BY modified_at DESC, ingested_at DESC
		LIMIT 1`,
		recordColumns, s.drv.Placeholder(1),
	)

	rows, err := tx.Query(ctx, query, taskID)
	if err != nil {
		return TaskRecord{}, false, syncerrors.ErrStoreWrite("load current revision", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return TaskRecord{}, false, syncerrors.ErrStoreWrite("load current revision", err)
		}
		return TaskRecord{}, false, nil
	}
	rec, err := scanRecord(rows)
	if err != nil {
		return TaskRecord{}, false, syncerrors.ErrStoreWrite("scan current revision", err)
	}
	return rec, true, nil
}

// sameContent compares everything except ingested_at.
func sameContent(a, b TaskRecord) bool {
	return a.TaskID == b.TaskID &&
		a.TaskName == b.TaskName &&
		eqStrPtr(a.ParentTaskID, b.ParentTaskID) &&
		a.ProjectID == b.ProjectID &&
		a.ProjectName == b.ProjectName &&
		eqStrPtr(a.AssigneeID, b.AssigneeID) &&
		eqStrPtr(a.AssigneeName, b.AssigneeName) &&
		eqStrPtr(a.DueOn, b.DueOn) &&
		eqFloatPtr(a.EstimatedMinutes, b.EstimatedMinutes) &&
		eqFloatPtr(a.ActualMinutes, b.ActualMinutes) &&
		a.NumSubtasks == b.NumSubtasks &&
		eqTimePtr(a.CompletedAt, b.CompletedAt) &&
		eqTimePtr(a.CreatedAt, b.CreatedAt)
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// placeholders builds a comma-separated placeholder list for n values.
func (s *Store) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.drv.Placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

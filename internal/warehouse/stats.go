package warehouse

import (
	"context"
	"database/sql"
	"time"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
)

// Stats is a quick health summary of the store.
type Stats struct {
	Revisions      int
	Tasks          int
	CompletedTasks int
	Watermark      *time.Time
	LastSnapshot   string
}

// ReadStats gathers counts for status reporting.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	var st Stats

	row := s.drv.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT task_id),
		       COUNT(DISTINCT CASE WHEN completed_at IS NOT NULL THEN task_id END)
		FROM task_records`)
	if err := row.Scan(&st.Revisions, &st.Tasks, &st.CompletedTasks); err != nil {
		return st, syncerrors.Wrap(err, "read store stats")
	}

	wm, err := s.Watermark(ctx)
	if err != nil {
		return st, err
	}
	st.Watermark = wm

	var last sql.NullString
	row = s.drv.QueryRow(ctx, "SELECT MAX(snapshot_date) FROM open_task_snapshots")
	if err := row.Scan(&last); err != nil {
		return st, syncerrors.Wrap(err, "read last snapshot date")
	}
	if last.Valid {
		st.LastSnapshot = last.String
	}
	return st, nil
}

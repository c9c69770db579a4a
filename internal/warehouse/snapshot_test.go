package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(date, taskID string) OpenTaskSnapshot {
	return OpenTaskSnapshot{
		SnapshotDate: date,
		TaskID:       taskID,
		TaskName:     "Task " + taskID,
		ProjectID:    "proj-1",
		ProjectName:  "Project One",
		CapturedAt:   time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC),
	}
}

func TestAppendSnapshots_WritesAndReads(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	snaps := []OpenTaskSnapshot{
		snapshot("2024-01-15", "t1"),
		snapshot("2024-01-15", "t2"),
	}
	snaps[0].IsOverdue = true
	snaps[0].DueOn = strPtr("2024-01-10")
	snaps[1].HasTimeFields = true
	snaps[1].EstimatedMinutes = f64(120)

	n, err := s.AppendSnapshots(ctx, snaps)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.SnapshotsForDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsOverdue)
	assert.Equal(t, "2024-01-10", *got[0].DueOn)
	assert.True(t, got[1].HasTimeFields)
	assert.Equal(t, 120.0, *got[1].EstimatedMinutes)
}

func TestAppendSnapshots_SameDayRerunIsNoop(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	first := snapshot("2024-01-15", "t1")
	n, err := s.AppendSnapshots(ctx, []OpenTaskSnapshot{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Same day and task again, even with different content, stays as captured.
	changed := snapshot("2024-01-15", "t1")
	changed.TaskName = "renamed"
	n, err = s.AppendSnapshots(ctx, []OpenTaskSnapshot{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := s.SnapshotsForDate(ctx, "2024-01-15")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Task t1", got[0].TaskName)
}

func TestAppendSnapshots_DistinctDaysAccumulate(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	_, err := s.AppendSnapshots(ctx, []OpenTaskSnapshot{snapshot("2024-01-15", "t1")})
	require.NoError(t, err)
	_, err = s.AppendSnapshots(ctx, []OpenTaskSnapshot{snapshot("2024-01-16", "t1")})
	require.NoError(t, err)

	day1, err := s.SnapshotsForDate(ctx, "2024-01-15")
	require.NoError(t, err)
	day2, err := s.SnapshotsForDate(ctx, "2024-01-16")
	require.NoError(t, err)
	assert.Len(t, day1, 1)
	assert.Len(t, day2, 1)
}

func TestAppendSnapshots_EmptyBatch(t *testing.T) {
	s := NewTestStore(t)

	n, err := s.AppendSnapshots(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oknozoka/asanasync/internal/asana"
)

func TestSnapshot_CapturesOpenWork(t *testing.T) {
	parent := openTask("t1", "In flight")
	parent.NumSubtasks = 2
	parent.DueOn = "2024-01-10"

	remote := &fakeRemote{
		projects: []asana.Project{{GID: "p1", Name: "Platform"}},
		tasks: map[string][]asana.RawTask{
			"p1": {parent, completedTask("t2", "Already done", "2024-01-15T10:00:00Z")},
		},
		subtasks: map[string][]asana.RawTask{
			"t1": {
				openTask("s1", "Open subtask"),
				completedTask("s2", "Done subtask", "2024-01-14T10:00:00Z"),
			},
		},
	}
	eng, store := newTestEngine(t, remote)

	res, err := eng.Snapshot(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2, res.TasksCaptured)
	assert.Equal(t, 1, res.Overdue)
	assert.Empty(t, res.ProjectErrors)

	snaps, err := store.SnapshotsForDate(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "[Subtask] Open subtask", snaps[0].TaskName)
	assert.False(t, snaps[0].IsOverdue)
	assert.Equal(t, "In flight", snaps[1].TaskName)
	assert.True(t, snaps[1].IsOverdue)
}

func TestSnapshot_SameDayRerunAddsNothing(t *testing.T) {
	remote := &fakeRemote{
		projects: []asana.Project{{GID: "p1", Name: "Platform"}},
		tasks:    map[string][]asana.RawTask{"p1": {openTask("t1", "In flight")}},
	}
	eng, _ := newTestEngine(t, remote)
	ctx := context.Background()

	res, err := eng.Snapshot(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 1, res.TasksCaptured)

	res, err = eng.Snapshot(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 0, res.TasksCaptured)
}

func TestSnapshot_DueTodayIsNotOverdue(t *testing.T) {
	task := openTask("t1", "Due today")
	task.DueOn = "2024-01-15"

	remote := &fakeRemote{
		projects: []asana.Project{{GID: "p1", Name: "Platform"}},
		tasks:    map[string][]asana.RawTask{"p1": {task}},
	}
	eng, _ := newTestEngine(t, remote)

	res, err := eng.Snapshot(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Overdue)
}

func TestSnapshot_MarksTimeFields(t *testing.T) {
	task := openTask("t1", "Estimated")
	task.CustomFields = []asana.CustomField{
		{Name: "見積もり時間", TextValue: "1.5h"},
	}

	remote := &fakeRemote{
		projects: []asana.Project{{GID: "p1", Name: "Platform"}},
		tasks:    map[string][]asana.RawTask{"p1": {task}},
	}
	eng, store := newTestEngine(t, remote)

	_, err := eng.Snapshot(context.Background(), "2024-01-15")
	require.NoError(t, err)

	snaps, err := store.SnapshotsForDate(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].HasTimeFields)
	require.NotNil(t, snaps[0].EstimatedMinutes)
	assert.Equal(t, 90.0, *snaps[0].EstimatedMinutes)
}

func TestSnapshot_ClockStampsCapture(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 6, 30, 0, 0, time.UTC)
	orig := clock
	clock = func() time.Time { return fixed }
	t.Cleanup(func() { clock = orig })

	remote := &fakeRemote{
		projects: []asana.Project{{GID: "p1", Name: "Platform"}},
		tasks:    map[string][]asana.RawTask{"p1": {openTask("t1", "In flight")}},
	}
	eng, store := newTestEngine(t, remote)

	_, err := eng.Snapshot(context.Background(), "2024-01-15")
	require.NoError(t, err)

	snaps, err := store.SnapshotsForDate(context.Background(), "2024-01-15")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].CapturedAt.Equal(fixed))
}

package syncer

import (
	"context"

	"github.com/oknozoka/asanasync/internal/asana"
	syncerrors "github.com/oknozoka/asanasync/internal/errors"
	"github.com/oknozoka/asanasync/internal/normalize"
	"github.com/oknozoka/asanasync/internal/warehouse"
)

// SnapshotResult summarizes a snapshot pass.
type SnapshotResult struct {
	Date          string
	TasksCaptured int
	Overdue       int
	ProjectErrors map[string]error
}

// Snapshot captures every still-open task (and open subtasks of open
// parents) for the given date. Appending the same date twice leaves the
// first capture in place.
func (e *Engine) Snapshot(ctx context.Context, date string) (SnapshotResult, error) {
	res := SnapshotResult{Date: date, ProjectErrors: make(map[string]error)}
	capturedAt := clock().UTC()

	projects, err := e.fetch.ListProjects(ctx)
	if err != nil {
		return res, err
	}
	projects = e.filterProjects(projects)

	var snaps []warehouse.OpenTaskSnapshot
	for _, p := range projects {
		projectSnaps, err := e.snapshotProject(ctx, p, date)
		if err != nil {
			if se := syncerrors.AsSyncError(err); se != nil && se.Code == syncerrors.CodeRemoteNotFound {
				e.logger.Warn("project vanished, skipping", "project", p.Name)
				continue
			}
			e.logger.Warn("project snapshot failed",
				"project", p.Name, "gid", p.GID, "error", err)
			res.ProjectErrors[p.GID] = err
			continue
		}
		snaps = append(snaps, projectSnaps...)
	}

	for i := range snaps {
		snaps[i].CapturedAt = capturedAt
		if snaps[i].IsOverdue {
			res.Overdue++
		}
	}

	n, err := e.store.AppendSnapshots(ctx, snaps)
	if err != nil {
		return res, err
	}
	res.TasksCaptured = n

	e.logger.Info("snapshot complete",
		"date", date, "captured", n, "overdue", res.Overdue)
	return res, nil
}

func (e *Engine) snapshotProject(ctx context.Context, p asana.Project, date string) ([]warehouse.OpenTaskSnapshot, error) {
	tasks, err := e.fetch.ListOpenTasks(ctx, p.GID)
	if err != nil {
		return nil, err
	}

	var snaps []warehouse.OpenTaskSnapshot
	for _, task := range tasks {
		task := task
		if task.IsCompleted() {
			continue
		}
		snaps = append(snaps, e.toSnapshot(&task, p, date, false))

		if task.NumSubtasks == 0 {
			continue
		}
		subs, err := e.fetch.ListSubtasks(ctx, task.GID)
		if err != nil {
			return nil, err
		}
		for _, sub := range subs {
			sub := sub
			if sub.IsCompleted() {
				continue
			}
			snaps = append(snaps, e.toSnapshot(&sub, p, date, true))
		}
	}
	return snaps, nil
}

func (e *Engine) toSnapshot(task *asana.RawTask, p asana.Project, date string, isSubtask bool) warehouse.OpenTaskSnapshot {
	effort := normalize.Normalize(task.CustomFields, e.normOpt)
	if task.ActualTimeMinutes != nil {
		effort.ActualMinutes = task.ActualTimeMinutes
	}

	name := task.Name
	if isSubtask {
		name = subtaskPrefix + name
	}

	sn := warehouse.OpenTaskSnapshot{
		SnapshotDate:     date,
		TaskID:           task.GID,
		TaskName:         name,
		ProjectID:        p.GID,
		ProjectName:      p.Name,
		EstimatedMinutes: effort.EstimatedMinutes,
		ActualMinutes:    effort.ActualMinutes,
		NumSubtasks:      task.NumSubtasks,
		HasTimeFields:    effort.EstimatedMinutes != nil || effort.ActualMinutes != nil,
	}
	if gid := task.AssigneeGID(); gid != "" {
		sn.AssigneeID = &gid
	}
	if an := task.AssigneeName(); an != "" {
		sn.AssigneeName = &an
	}
	if task.DueOn != "" {
		due := task.DueOn
		sn.DueOn = &due
		sn.IsOverdue = task.DueOn < date
	}
	return sn
}

// Package syncer orchestrates a sync run: plan the fetch window, pull
// projects and tasks from the remote source, normalize their fields, and
// reconcile the resulting batch into the warehouse.
package syncer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oknozoka/asanasync/internal/asana"
	"github.com/oknozoka/asanasync/internal/config"
	syncerrors "github.com/oknozoka/asanasync/internal/errors"
	"github.com/oknozoka/asanasync/internal/normalize"
	"github.com/oknozoka/asanasync/internal/planner"
	"github.com/oknozoka/asanasync/internal/warehouse"
)

// subtaskPrefix marks records that came from a subtask rather than a
// top-level task.
const subtaskPrefix = "[Subtask] "

// Fetcher bundles the remote calls the engine needs. Tests swap these for
// fakes; production wires them to an asana.Client.
type Fetcher struct {
	ListProjects  func(ctx context.Context) ([]asana.Project, error)
	ListTasks     func(ctx context.Context, projectID string, w planner.Window) ([]asana.RawTask, error)
	ListOpenTasks func(ctx context.Context, projectID string) ([]asana.RawTask, error)
	ListSubtasks  func(ctx context.Context, parentID string) ([]asana.RawTask, error)
}

// NewFetcher wires a Fetcher to a live client.
func NewFetcher(c *asana.Client) Fetcher {
	return Fetcher{
		ListProjects:  c.ListProjects,
		ListTasks:     c.ListTasks,
		ListOpenTasks: c.ListOpenTasks,
		ListSubtasks:  c.ListSubtasks,
	}
}

// Engine runs sync and snapshot passes.
type Engine struct {
	fetch   Fetcher
	store   *warehouse.Store
	logger  *slog.Logger
	workers int
	filter  string
	normOpt normalize.Options
}

// New creates an engine from config-level knobs.
func New(fetch Fetcher, store *warehouse.Store, cfg *config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.Sync.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		fetch:   fetch,
		store:   store,
		logger:  logger,
		workers: workers,
		filter:  cfg.Sync.ProjectFilter,
		normOpt: normalize.Options{RateFormula: cfg.Normalize.RateFormula},
	}
}

// RunOptions tweaks a single sync run.
type RunOptions struct {
	// ForceFull refetches from the configured horizon even when a
	// watermark exists.
	ForceFull bool

	// ForceSweep refetches everything modified since the epoch. Wins
	// over ForceFull.
	ForceSweep bool

	// DryRun fetches and normalizes but merges nothing.
	DryRun bool
}

// RunResult summarizes a sync run.
type RunResult struct {
	Window          planner.Window
	ProjectsFetched int
	ProjectsSkipped int
	RecordsFetched  int
	RecordsMerged   int
	RecordsSkipped  int
	ParseSkipped    int

	// ProjectErrors holds per-project failures that did not stop the
	// run. Keyed by project id.
	ProjectErrors map[string]error
}

// Run executes one sync pass. Projects fail independently: an error in one
// never discards the records fetched from the others. The merged batch
// becomes visible atomically at the end.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	res := RunResult{ProjectErrors: make(map[string]error)}

	watermark, err := e.store.Watermark(ctx)
	if err != nil {
		return res, err
	}
	res.Window = planner.PlanWindow(watermark, opts.ForceFull, opts.ForceSweep)
	e.logger.Info("planned sync window",
		"kind", res.Window.Kind.String(),
		"modified_since", res.Window.ModifiedSince)

	projects, err := e.fetch.ListProjects(ctx)
	if err != nil {
		return res, err
	}
	projects = e.filterProjects(projects)

	var (
		mu      sync.Mutex
		batch   []warehouse.TaskRecord
		skipped int
		parse   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, p := range projects {
		p := p
		g.Go(func() error {
			recs, skip, dropped, err := e.fetchProject(gctx, p, res.Window)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Warn("project fetch failed",
					"project", p.Name, "gid", p.GID, "error", err)
				res.ProjectErrors[p.GID] = err
				return nil
			}
			if skip {
				skipped++
				return nil
			}
			batch = append(batch, recs...)
			parse += dropped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	res.ProjectsFetched = len(projects) - skipped
	res.ProjectsSkipped = skipped
	res.RecordsFetched = len(batch)
	res.ParseSkipped = parse

	if opts.DryRun {
		e.logger.Info("dry run, skipping merge", "records", len(batch))
		return res, nil
	}

	merged, err := e.store.Reconcile(ctx, batch)
	if err != nil {
		return res, err
	}
	res.RecordsMerged = merged.Merged
	res.RecordsSkipped = merged.Skipped

	e.logger.Info("sync complete",
		"window", res.Window.Kind.String(),
		"projects", res.ProjectsFetched,
		"skipped_projects", res.ProjectsSkipped,
		"merged", res.RecordsMerged,
		"failed_projects", len(res.ProjectErrors))
	return res, nil
}

// fetchProject pulls one project's tasks and subtasks and converts them to
// records. A not-found project is reported as a skip, not an error.
func (e *Engine) fetchProject(ctx context.Context, p asana.Project, w planner.Window) (recs []warehouse.TaskRecord, skip bool, dropped int, err error) {
	latest, err := e.store.LatestProjectCompletion(ctx, p.GID)
	if err != nil {
		return nil, false, 0, err
	}
	if planner.ShouldSkipProject(latest, w) {
		e.logger.Debug("skipping quiet project", "project", p.Name)
		return nil, true, 0, nil
	}

	tasks, err := e.fetch.ListTasks(ctx, p.GID, w)
	if err != nil {
		if se := syncerrors.AsSyncError(err); se != nil && se.Code == syncerrors.CodeRemoteNotFound {
			e.logger.Warn("project vanished, skipping", "project", p.Name)
			return nil, true, 0, nil
		}
		return nil, false, 0, err
	}

	sweep := w.Kind == planner.ForceSweep
	for _, task := range tasks {
		task := task
		if rec, ok := e.toRecord(&task, p, "", sweep); ok {
			recs = append(recs, rec)
		} else {
			dropped++
		}
		if task.NumSubtasks == 0 {
			continue
		}
		subs, err := e.fetch.ListSubtasks(ctx, task.GID)
		if err != nil {
			return nil, false, dropped, err
		}
		for _, sub := range subs {
			sub := sub
			if rec, ok := e.toRecord(&sub, p, task.GID, sweep); ok {
				recs = append(recs, rec)
			} else {
				dropped++
			}
		}
	}
	return recs, false, dropped, nil
}

// toRecord converts a raw task into a warehouse record. parentID is empty
// for top-level tasks. Returns false when the task carries nothing
// storable: no modified_at, or not completed outside a sweep.
func (e *Engine) toRecord(task *asana.RawTask, p asana.Project, parentID string, sweep bool) (warehouse.TaskRecord, bool) {
	if task.ModifiedAt == nil {
		e.logger.Warn("task missing modified_at, dropped", "gid", task.GID)
		return warehouse.TaskRecord{}, false
	}
	if !task.IsCompleted() && !sweep {
		return warehouse.TaskRecord{}, false
	}

	effort := normalize.Normalize(task.CustomFields, e.normOpt)
	if task.ActualTimeMinutes != nil {
		effort.ActualMinutes = task.ActualTimeMinutes
	}

	name := task.Name
	if parentID != "" {
		name = subtaskPrefix + name
	}

	rec := warehouse.TaskRecord{
		TaskID:           task.GID,
		TaskName:         name,
		ProjectID:        p.GID,
		ProjectName:      p.Name,
		EstimatedMinutes: effort.EstimatedMinutes,
		ActualMinutes:    effort.ActualMinutes,
		NumSubtasks:      task.NumSubtasks,
		CompletedAt:      task.CompletedAt,
		CreatedAt:        task.CreatedAt,
		ModifiedAt:       task.ModifiedAt.UTC(),
	}
	if parentID != "" {
		rec.ParentTaskID = &parentID
	}
	if gid := task.AssigneeGID(); gid != "" {
		rec.AssigneeID = &gid
	}
	if an := task.AssigneeName(); an != "" {
		rec.AssigneeName = &an
	}
	if task.DueOn != "" {
		due := task.DueOn
		rec.DueOn = &due
	}
	return rec, true
}

func (e *Engine) filterProjects(projects []asana.Project) []asana.Project {
	if e.filter == "" {
		return projects
	}
	var out []asana.Project
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(e.filter)) {
			out = append(out, p)
		}
	}
	return out
}

// clock is stubbed in snapshot tests.
var clock = time.Now

// Package planner decides the fetch window for a sync run.
package planner

import "time"

// Kind identifies the fetch window type.
type Kind int

const (
	// Full fetches every completed item back to the configured horizon.
	Full Kind = iota
	// Incremental fetches items modified since the store watermark.
	Incremental
	// ForceSweep fetches with modified_since = epoch to recover parents
	// whose completion state changed without a new "completed" event.
	ForceSweep
)

// String returns the window kind name for logs and summaries.
func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case Incremental:
		return "incremental"
	case ForceSweep:
		return "force-sweep"
	default:
		return "unknown"
	}
}

// Window bounds a fetch pass.
type Window struct {
	Kind Kind

	// ModifiedSince is the lower bound for Incremental windows.
	// Zero for Full and ForceSweep.
	ModifiedSince time.Time
}

// PlanWindow picks the window for a run. forceSweep wins over forceFull;
// an absent watermark (empty store) is treated the same as forceFull.
func PlanWindow(watermark *time.Time, forceFull, forceSweep bool) Window {
	if forceSweep {
		return Window{Kind: ForceSweep}
	}
	if forceFull || watermark == nil {
		return Window{Kind: Full}
	}
	return Window{Kind: Incremental, ModifiedSince: *watermark}
}

// ShouldSkipProject reports whether a project can be skipped for the given
// window. This is an optimization only: it skips solely when the project's
// latest known completion strictly precedes the incremental bound. When
// uncertain (no recorded completion, non-incremental window) the project is
// always fetched.
func ShouldSkipProject(latestCompletion *time.Time, w Window) bool {
	if w.Kind != Incremental {
		return false
	}
	if latestCompletion == nil {
		return false
	}
	return latestCompletion.Before(w.ModifiedSince)
}

package asana

import "time"

// Project is a workspace project as returned by the remote source.
type Project struct {
	GID      string `json:"gid"`
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

// EnumValue is the selected option of an enum custom field.
type EnumValue struct {
	Name string `json:"name"`
}

// CustomField is one raw custom-attribute entry on a task. Which of the
// value fields is populated depends on the field type, and the schema has
// drifted over time, so all of them are carried.
type CustomField struct {
	Name         string     `json:"name"`
	NumberValue  *float64   `json:"number_value"`
	TextValue    string     `json:"text_value"`
	DisplayValue string     `json:"display_value"`
	EnumValue    *EnumValue `json:"enum_value"`
}

// Assignee is the user a task is assigned to.
type Assignee struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// RawTask is a task or subtask as returned by the remote source, before
// normalization.
type RawTask struct {
	GID          string        `json:"gid"`
	Name         string        `json:"name"`
	Completed    bool          `json:"completed"`
	CompletedAt  *time.Time    `json:"completed_at"`
	CreatedAt    *time.Time    `json:"created_at"`
	ModifiedAt   *time.Time    `json:"modified_at"`
	DueOn        string        `json:"due_on"`
	NumSubtasks  int           `json:"num_subtasks"`
	Assignee     *Assignee     `json:"assignee"`
	CustomFields []CustomField `json:"custom_fields"`

	// ActualTimeMinutes is the native time-tracking total, when the
	// workspace has it enabled. Takes precedence over custom-field
	// derived actuals.
	ActualTimeMinutes *float64 `json:"actual_time_minutes"`
}

// IsCompleted reports whether the task was completed at fetch time.
// Both flags must agree; the remote occasionally returns completed=true
// with a null timestamp mid-transition.
func (t *RawTask) IsCompleted() bool {
	return t.Completed && t.CompletedAt != nil
}

// AssigneeGID returns the assignee id, or "" when unassigned.
func (t *RawTask) AssigneeGID() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.GID
}

// AssigneeName returns the assignee name, or "" when unassigned.
func (t *RawTask) AssigneeName() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.Name
}

// DueDate parses due_on as a date. Returns the zero time when absent or
// malformed.
func (t *RawTask) DueDate() time.Time {
	if t.DueOn == "" {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", t.DueOn)
	if err != nil {
		return time.Time{}
	}
	return d
}

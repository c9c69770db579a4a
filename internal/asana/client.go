// Package asana provides the remote task-source client.
//
// The client wraps the Asana REST API with transparent pagination and a
// bounded retry policy shared across all concurrent callers. Calls are
// read-only and safe to repeat.
package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	syncerrors "github.com/oknozoka/asanasync/internal/errors"
	"github.com/oknozoka/asanasync/internal/planner"
)

// sweepEpoch is the modified_since bound used by a force sweep.
const sweepEpoch = "1970-01-01T00:00:00.000Z"

// ClientConfig holds the configuration for connecting to the Asana API.
type ClientConfig struct {
	// BaseURL is the API root (e.g. "https://app.asana.com/api/1.0").
	BaseURL string
	// AccessToken is the personal access token used as a bearer token.
	AccessToken string
	// WorkspaceID scopes project listing.
	WorkspaceID string
	// FullHorizon is the completed_since bound for Full windows.
	FullHorizon string
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// Retry is the transient-failure retry policy.
	Retry RetryPolicy
	// PageSize is the per-page limit (default 100).
	PageSize int
}

// Client talks to the remote task source. Construct one per run and share
// it across workers; the retry pacer inside is workspace-global state.
type Client struct {
	http   *http.Client
	cfg    ClientConfig
	pacer  *pacer
	logger *slog.Logger
}

// NewClient creates an Asana API client.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("asana base URL is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("asana access token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.FullHorizon == "" {
		cfg.FullHorizon = "2023-01-01T00:00:00.000Z"
	}

	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		pacer:  newPacer(),
		logger: logger,
	}, nil
}

// taskFields are the task attributes requested on every task listing.
// Keeping this explicit avoids fetching unnecessary data.
var taskFields = strings.Join([]string{
	"name", "gid", "completed", "completed_at", "created_at", "modified_at",
	"due_on", "assignee", "assignee.gid", "assignee.name", "num_subtasks",
	"actual_time_minutes",
	"custom_fields", "custom_fields.name", "custom_fields.number_value",
	"custom_fields.text_value", "custom_fields.display_value",
	"custom_fields.enum_value.name",
}, ",")

// ListProjects fetches all non-archived projects in the workspace.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	q := url.Values{}
	q.Set("opt_fields", "name,gid,archived")

	var all []Project
	err := c.paginate(ctx, "/workspaces/"+c.cfg.WorkspaceID+"/projects", q, func(data []byte) error {
		var page []Project
		if err := json.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("decode projects page: %w", err)
		}
		for _, p := range page {
			if !p.Archived {
				all = append(all, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return all, nil
}

// ListTasks fetches all tasks in a project for the given window. Pagination
// is exhausted before returning; callers receive the complete result set.
func (c *Client) ListTasks(ctx context.Context, projectID string, w planner.Window) ([]RawTask, error) {
	q := url.Values{}
	q.Set("opt_fields", taskFields)

	switch w.Kind {
	case planner.ForceSweep:
		q.Set("modified_since", sweepEpoch)
	case planner.Incremental:
		q.Set("modified_since", w.ModifiedSince.UTC().Format(time.RFC3339))
	default:
		q.Set("completed_since", c.cfg.FullHorizon)
	}

	tasks, err := c.listTaskPages(ctx, "/projects/"+projectID+"/tasks", q)
	if err != nil {
		return nil, fmt.Errorf("list tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// ListOpenTasks fetches the currently incomplete tasks in a project.
// The remote returns only open items for completed_since=now.
func (c *Client) ListOpenTasks(ctx context.Context, projectID string) ([]RawTask, error) {
	q := url.Values{}
	q.Set("opt_fields", taskFields)
	q.Set("completed_since", "now")

	tasks, err := c.listTaskPages(ctx, "/projects/"+projectID+"/tasks", q)
	if err != nil {
		return nil, fmt.Errorf("list open tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// ListSubtasks fetches all subtasks of a parent task.
func (c *Client) ListSubtasks(ctx context.Context, parentID string) ([]RawTask, error) {
	q := url.Values{}
	q.Set("opt_fields", taskFields)

	tasks, err := c.listTaskPages(ctx, "/tasks/"+parentID+"/subtasks", q)
	if err != nil {
		return nil, fmt.Errorf("list subtasks of %s: %w", parentID, err)
	}
	return tasks, nil
}

func (c *Client) listTaskPages(ctx context.Context, path string, q url.Values) ([]RawTask, error) {
	var all []RawTask
	err := c.paginate(ctx, path, q, func(data []byte) error {
		var page []RawTask
		if err := json.Unmarshal(data, &page); err != nil {
			return fmt.Errorf("decode tasks page: %w", err)
		}
		all = append(all, page...)
		return nil
	})
	return all, err
}

// paginate walks every page of a collection endpoint, handing the raw
// "data" array of each page to handle.
func (c *Client) paginate(ctx context.Context, path string, q url.Values, handle func(data []byte) error) error {
	q.Set("limit", fmt.Sprint(c.cfg.PageSize))
	offset := ""

	for {
		page := url.Values{}
		for k, v := range q {
			page[k] = v
		}
		if offset != "" {
			page.Set("offset", offset)
		}

		body, err := c.get(ctx, path, page)
		if err != nil {
			return err
		}

		data := gjson.GetBytes(body, "data")
		if data.Exists() {
			if err := handle([]byte(data.Raw)); err != nil {
				return err
			}
		}

		offset = gjson.GetBytes(body, "next_page.offset").String()
		if offset == "" {
			return nil
		}
	}
}

// get performs one GET with the shared retry policy. Transient statuses
// (429/5xx) back off with jitter, honoring Retry-After; the backoff state
// is shared via the pacer so concurrent workers slow down together.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	reqURL := c.cfg.BaseURL + path + "?" + q.Encode()

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			// Network-level failures follow the transient path.
			if attempt+1 >= c.cfg.Retry.MaxAttempts {
				return nil, syncerrors.ErrRemoteTransient(0, attempt+1).WithCause(err)
			}
			c.logger.Warn("request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
			if err := c.pacer.Backoff(ctx, c.cfg.Retry.Delay(attempt, 0, nil)); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("read response: %w", readErr)
			}
			return body, nil

		case retryableStatus(resp.StatusCode):
			if attempt+1 >= c.cfg.Retry.MaxAttempts {
				return nil, syncerrors.ErrRemoteTransient(resp.StatusCode, attempt+1)
			}
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			delay := c.cfg.Retry.Delay(attempt, retryAfter, nil)
			c.logger.Warn("rate limited or server error, backing off",
				"path", path, "status", resp.StatusCode, "attempt", attempt+1, "delay", delay)
			if err := c.pacer.Backoff(ctx, delay); err != nil {
				return nil, err
			}

		case resp.StatusCode == http.StatusNotFound:
			return nil, syncerrors.ErrRemoteNotFound(path)

		default:
			return nil, syncerrors.ErrRemotePermanent(resp.StatusCode, strings.TrimSpace(string(body)))
		}
	}
}

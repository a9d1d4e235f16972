package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/scratchd/scratchd/internal/control"
	"github.com/scratchd/scratchd/internal/engine"
)

const (
	// defaultTimeout is used when the caller does not provide a context deadline.
	defaultTimeout = 3 * time.Second
)

// Client talks to the running scratchd daemon over its control socket.
type Client struct {
	socketPath string
}

type (
	// ProjectStatus describes the daemon's active project and the configured set.
	ProjectStatus = control.ProjectStatus
	// SavedMark carries the mark written by a state.save request.
	SavedMark = control.SavedMark
	// RestoredState reports the placement a state.restore request reapplied.
	RestoredState = control.RestoredState
	// ReconcileResult mirrors the sweep summary returned by the daemon.
	ReconcileResult = engine.ReconcileResult
	// PlannedCommand mirrors one dry-run command returned by the daemon.
	PlannedCommand = engine.PlannedCommand
	// SummonResult mirrors the summon outcome returned by the daemon.
	SummonResult = engine.SummonResult
	// StatusReport mirrors the daemon status payload.
	StatusReport = engine.StatusReport
	// WindowReport mirrors one classified window returned by the daemon.
	WindowReport = engine.WindowReport
	// DumpReport mirrors the full diagnostic payload.
	DumpReport = engine.DumpReport
)

// New creates a client that connects to the provided socket path. When path is
// empty, the default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// Project retrieves the daemon's active project along with the configured set.
func (c *Client) Project(ctx context.Context) (ProjectStatus, error) {
	var status ProjectStatus
	if err := c.do(ctx, control.Request{Action: control.ActionProjectGet}, &status); err != nil {
		return ProjectStatus{}, err
	}
	return status, nil
}

// SetProject switches the daemon to the named project and returns the sweep
// the switch triggered.
func (c *Client) SetProject(ctx context.Context, name string) (ReconcileResult, error) {
	if name == "" {
		return ReconcileResult{}, errors.New("project name cannot be empty")
	}
	payload := control.Request{Action: control.ActionProjectSet, Params: map[string]any{"name": name}}
	var result ReconcileResult
	if err := c.do(ctx, payload, &result); err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

// Reconcile asks the daemon to run a sweep immediately.
func (c *Client) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult
	if err := c.do(ctx, control.Request{Action: control.ActionReconcile}, &result); err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

// PreviewReconcile asks the daemon for the commands the next sweep would run
// without dispatching them.
func (c *Client) PreviewReconcile(ctx context.Context) ([]PlannedCommand, error) {
	payload := control.Request{Action: control.ActionReconcile, Params: map[string]any{"preview": true}}
	var plan []PlannedCommand
	if err := c.do(ctx, payload, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Summon asks the daemon to reveal and focus the first window matching the
// criteria, claiming it for the active project if needed.
func (c *Client) Summon(ctx context.Context, criteria string) (SummonResult, error) {
	if criteria == "" {
		return SummonResult{}, errors.New("summon criteria cannot be empty")
	}
	payload := control.Request{Action: control.ActionSummon, Params: map[string]any{"criteria": criteria}}
	var result SummonResult
	if err := c.do(ctx, payload, &result); err != nil {
		return SummonResult{}, err
	}
	return result, nil
}

// SaveState asks the daemon to capture the window's current placement into
// its mark.
func (c *Client) SaveState(ctx context.Context, conID int64) (SavedMark, error) {
	payload := control.Request{Action: control.ActionStateSave, Params: map[string]any{"con_id": conID}}
	var saved SavedMark
	if err := c.do(ctx, payload, &saved); err != nil {
		return SavedMark{}, err
	}
	return saved, nil
}

// RestoreState asks the daemon to reapply the placement saved in the window's
// mark.
func (c *Client) RestoreState(ctx context.Context, conID int64) (RestoredState, error) {
	payload := control.Request{Action: control.ActionStateRestore, Params: map[string]any{"con_id": conID}}
	var restored RestoredState
	if err := c.do(ctx, payload, &restored); err != nil {
		return RestoredState{}, err
	}
	return restored, nil
}

// Recover asks the daemon to rebuild its state from window manager ground
// truth.
func (c *Client) Recover(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionRecover}, nil)
}

// Status retrieves the daemon's status summary.
func (c *Client) Status(ctx context.Context) (StatusReport, error) {
	var status StatusReport
	if err := c.do(ctx, control.Request{Action: control.ActionStatus}, &status); err != nil {
		return StatusReport{}, err
	}
	return status, nil
}

// Windows retrieves every managed window with its classification.
func (c *Client) Windows(ctx context.Context) ([]WindowReport, error) {
	var reports []WindowReport
	if err := c.do(ctx, control.Request{Action: control.ActionWindows}, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Dump retrieves the daemon's full diagnostic payload.
func (c *Client) Dump(ctx context.Context) (DumpReport, error) {
	var dump DumpReport
	if err := c.do(ctx, control.Request{Action: control.ActionDump}, &dump); err != nil {
		return DumpReport{}, err
	}
	return dump, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionReload}, nil)
}

func (c *Client) do(ctx context.Context, req control.Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp control.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			resp.Error = "unknown control error"
		}
		return errors.New(resp.Error)
	}
	if out == nil || resp.Data == nil {
		return nil
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

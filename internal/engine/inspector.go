package engine

import (
	"context"

	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/rules"
	"github.com/scratchd/scratchd/internal/state"
)

// StatusReport is the terse health view served over the control socket.
type StatusReport struct {
	ActiveProject string           `json:"activeProject"`
	Projects      []string         `json:"projects,omitempty"`
	Connected     bool             `json:"connected"`
	Windows       int              `json:"windows"`
	Hidden        int              `json:"hidden"`
	Marked        int              `json:"marked"`
	Metrics       metrics.Snapshot `json:"metrics"`
	Recovery      []RecoveryEvent  `json:"recovery,omitempty"`
}

// WindowReport describes one window the way the reconciler sees it.
type WindowReport struct {
	ConID     int64       `json:"conId"`
	Class     string      `json:"class,omitempty"`
	Instance  string      `json:"instance,omitempty"`
	Title     string      `json:"title,omitempty"`
	AppID     string      `json:"appId,omitempty"`
	Workspace string      `json:"workspace,omitempty"`
	Output    string      `json:"output,omitempty"`
	Scope     string      `json:"scope"`
	Project   string      `json:"project,omitempty"`
	Mark      string      `json:"mark,omitempty"`
	StateOK   bool        `json:"stateOk"`
	Malformed bool        `json:"malformed,omitempty"`
	Hidden    bool        `json:"hidden"`
	Floating  bool        `json:"floating"`
	Focused   bool        `json:"focused"`
	Geometry  layout.Rect `json:"geometry"`
}

// RuleReport is the serializable view of one compiled rule, in evaluation
// order.
type RuleReport struct {
	Pattern  string `json:"pattern"`
	Type     string `json:"type"`
	Scope    string `json:"scope"`
	Priority int    `json:"priority"`
	Source   string `json:"source"`
}

// DumpReport is the full diagnostic state document. StaleMarks lists scratch
// marks the window manager reports that no window in the snapshot carries.
type DumpReport struct {
	Status     StatusReport   `json:"status"`
	Rules      []RuleReport   `json:"rules,omitempty"`
	Windows    []WindowReport `json:"windows,omitempty"`
	StaleMarks []string       `json:"staleMarks,omitempty"`
}

// Status reports from the last cached snapshot without querying the window
// manager, so it stays available while the link is down.
func (e *Engine) Status() StatusReport {
	e.mu.Lock()
	report := StatusReport{
		ActiveProject: e.activeProject,
		Projects:      append([]string(nil), e.projects...),
		Connected:     e.linkUp,
	}
	world := e.lastWorld
	e.mu.Unlock()

	if world != nil {
		report.Windows = len(world.Windows)
		for i := range world.Windows {
			if world.Windows[i].Hidden {
				report.Hidden++
			}
			if _, ok := mark.FromMarks(world.Windows[i].Marks); ok {
				report.Marked++
			}
		}
	}
	report.Metrics = e.metrics.Snapshot()
	report.Recovery = e.recovery.snapshot()
	return report
}

// Windows takes a fresh snapshot and classifies every window.
func (e *Engine) Windows(ctx context.Context) ([]WindowReport, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.windowReports(world), nil
}

// Dump assembles the full diagnostic document from a fresh snapshot.
func (e *Engine) Dump(ctx context.Context) (DumpReport, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return DumpReport{}, err
	}
	e.mu.Lock()
	set := e.rules
	e.mu.Unlock()

	dump := DumpReport{
		Status:  e.Status(),
		Windows: e.windowReports(world),
	}
	for _, r := range set.Rules() {
		dump.Rules = append(dump.Rules, RuleReport{
			Pattern:  r.Pattern.String(),
			Type:     string(r.Type),
			Scope:    string(r.Scope),
			Priority: r.Priority,
			Source:   string(r.Source),
		})
	}
	dump.StaleMarks = e.staleMarks(ctx, world)
	return dump, nil
}

// staleMarks cross-checks the mark query against the tree snapshot. A scratch
// mark absent from every window is an orphan left behind by a race or a crash
// mid-write; it is reported, never acted on.
func (e *Engine) staleMarks(ctx context.Context, world *state.World) []string {
	all, err := e.wm.GetMarks(ctx)
	if err != nil {
		e.logger.Warnf("mark query failed: %v", err)
		return nil
	}
	carried := make(map[string]bool)
	for i := range world.Windows {
		for _, raw := range world.Windows[i].Marks {
			carried[raw] = true
		}
	}
	var stale []string
	for _, raw := range all {
		if _, ok := mark.Decode(raw); ok && !carried[raw] {
			stale = append(stale, raw)
		}
	}
	return stale
}

func (e *Engine) windowReports(world *state.World) []WindowReport {
	e.mu.Lock()
	set := e.rules
	e.mu.Unlock()

	reports := make([]WindowReport, 0, len(world.Windows))
	for i := range world.Windows {
		win := &world.Windows[i]
		scope := set.Classify(rules.Subject{
			Class:    win.EffectiveClass(),
			Instance: win.Instance,
			Title:    win.Title,
		})
		r := WindowReport{
			ConID:     win.ID,
			Class:     win.Class,
			Instance:  win.Instance,
			Title:     win.Title,
			AppID:     win.AppID,
			Workspace: win.Workspace,
			Output:    win.Output,
			Scope:     string(scope),
			Hidden:    win.Hidden,
			Floating:  win.Floating,
			Focused:   win.Focused,
			Geometry:  win.Geometry,
		}
		if m, ok := mark.FromMarks(win.Marks); ok {
			r.Project = m.Project
			r.Mark = m.Raw
			r.StateOK = m.State != nil
			r.Malformed = m.Err != nil
		}
		reports = append(reports, r)
	}
	return reports
}

package engine

import (
	"context"
	"time"

	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/rules"
	"github.com/scratchd/scratchd/internal/state"
)

// windowAction names what a sweep decided for one window.
type windowAction string

const (
	actionAdopt   windowAction = "adopt"
	actionHide    windowAction = "hide"
	actionShow    windowAction = "show"
	actionRelease windowAction = "release"
)

// ReconcileResult summarizes one sweep.
type ReconcileResult struct {
	Project  string `json:"project"`
	Windows  int    `json:"windows"`
	Hidden   int    `json:"hidden"`
	Shown    int    `json:"shown"`
	Adopted  int    `json:"adopted"`
	Released int    `json:"released"`
	Commands int    `json:"commands"`
	Failures int    `json:"failures"`
}

// PlannedCommand is one command a sweep would dispatch, annotated with the
// window and the action it serves.
type PlannedCommand struct {
	ConID   int64  `json:"conId"`
	Action  string `json:"action"`
	Command string `json:"command"`
}

// Reconcile takes a fresh snapshot and corrects every window whose actual
// visibility differs from the desired one. Desired visibility is recomputed
// from scratch each time, so re-running it is always safe.
func (e *Engine) Reconcile(ctx context.Context) (ReconcileResult, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return ReconcileResult{}, err
	}
	return e.sweep(ctx, world)
}

// PreviewReconcile computes the sweep plan without dispatching anything.
func (e *Engine) PreviewReconcile(ctx context.Context) ([]PlannedCommand, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	active := e.activeProject
	set := e.rules
	e.mu.Unlock()

	var out []PlannedCommand
	for i := range world.Windows {
		win := &world.Windows[i]
		plan, action := e.planWindow(ctx, world, win, active, set)
		for _, cmd := range plan.Commands {
			out = append(out, PlannedCommand{ConID: win.ID, Action: string(action), Command: cmd})
		}
	}
	return out, nil
}

func (e *Engine) sweep(ctx context.Context, world *state.World) (ReconcileResult, error) {
	e.mu.Lock()
	active := e.activeProject
	set := e.rules
	stagger := e.stagger
	e.mu.Unlock()

	result := ReconcileResult{Project: active, Windows: len(world.Windows)}
	acted := false
	for i := range world.Windows {
		win := &world.Windows[i]
		plan, action := e.planWindow(ctx, world, win, active, set)
		if len(plan.Commands) == 0 {
			continue
		}
		if acted && stagger > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(stagger):
			}
		}
		acted = true
		e.trace("window.apply", map[string]any{
			"con":      win.ID,
			"action":   action,
			"commands": plan.Commands,
		})
		if err := plan.Execute(ctx, e.wm); err != nil {
			result.Failures++
			e.metrics.RecordCommandError()
			e.logger.Errorf("window %d %s failed: %v", win.ID, action, err)
			continue
		}
		result.Commands += len(plan.Commands)
		e.metrics.RecordCommands(len(plan.Commands))
		switch action {
		case actionHide:
			result.Hidden++
			e.metrics.RecordHidden()
			e.metrics.RecordMarkWritten()
		case actionShow:
			result.Shown++
			e.metrics.RecordShown()
		case actionAdopt:
			result.Adopted++
			e.metrics.RecordMarkWritten()
		case actionRelease:
			result.Released++
		}
	}
	e.metrics.RecordSweep()
	if acted {
		e.logger.Infof("sweep [%s]: hid %d, showed %d, adopted %d, released %d (%d commands, %d failures)",
			active, result.Hidden, result.Shown, result.Adopted, result.Released, result.Commands, result.Failures)
	}
	return result, nil
}

// planWindow computes the minimal command sequence reconciling one window.
// An empty plan means the window already matches its desired state.
func (e *Engine) planWindow(ctx context.Context, world *state.World, win *state.Window, active string, set *rules.Set) (layout.Plan, windowAction) {
	var plan layout.Plan
	scope := set.Classify(rules.Subject{
		Class:    win.EffectiveClass(),
		Instance: win.Instance,
		Title:    win.Title,
	})
	m, marked := mark.FromMarks(win.Marks)
	if marked && m.Err != nil {
		e.metrics.RecordDecodeFailure()
		e.logger.Warnf("window %d mark %q: %v", win.ID, m.Raw, m.Err)
	}

	if scope == rules.ScopeGlobal {
		if !marked {
			return plan, ""
		}
		// The rule set no longer scopes this window. Surface it and drop the
		// stale mark so it stays global.
		if win.Hidden {
			plan.Merge(layout.ScratchpadShow(win.ID))
		}
		plan.Merge(layout.Unmark(win.ID, m.Raw))
		return plan, actionRelease
	}

	if !marked {
		if win.Hidden {
			// Parked on the scratchpad by someone else; not ours to adopt.
			return plan, ""
		}
		plan.Merge(layout.Mark(win.ID, mark.Identity(active)))
		return plan, actionAdopt
	}

	desiredVisible := m.Project == active
	if desiredVisible == !win.Hidden {
		return plan, ""
	}
	if !desiredVisible {
		st := e.captureState(win)
		plan.Merge(layout.Mark(win.ID, mark.Mark{Project: m.Project, State: &st}.Encode()))
		plan.Merge(layout.MoveToScratchpad(win.ID))
		return plan, actionHide
	}
	plan.Merge(e.showPlan(ctx, world, win, m.State))
	return plan, actionShow
}

// captureState freezes the window's current placement for its mark. The
// output name comes from the window manager, so it is cleaned to the subset
// the state encoding can carry.
func (e *Engine) captureState(win *state.Window) mark.State {
	return mark.State{
		Floating:  win.Floating,
		X:         win.Geometry.X,
		Y:         win.Geometry.Y,
		Width:     win.Geometry.Width,
		Height:    win.Geometry.Height,
		SavedAt:   e.now().Unix(),
		Workspace: win.WorkspaceNum,
		Monitor:   mark.CleanMonitor(win.Output),
	}
}

// showPlan pulls a window back from the scratchpad and places it. A state
// saved as tiled re-tiles instead of being positioned; floating windows are
// restored to their saved size and anchored to the cursor. Without usable
// state the current size is kept.
func (e *Engine) showPlan(ctx context.Context, world *state.World, win *state.Window, st *mark.State) layout.Plan {
	var plan layout.Plan
	plan.Merge(layout.ScratchpadShow(win.ID))
	if st != nil && !st.Floating {
		plan.Merge(layout.FloatingSet(win.ID, false))
		return plan
	}
	w, h := win.Geometry.Width, win.Geometry.Height
	if st != nil {
		w, h = st.Width, st.Height
		plan.Merge(layout.ResizeSet(win.ID, w, h))
	}
	move, _ := e.positionPlan(ctx, world, win.ID, w, h)
	plan.Merge(move)
	return plan
}

// positionPlan resolves the cursor and computes the move command placing a
// window of the given size on the workspace under the cursor.
func (e *Engine) positionPlan(ctx context.Context, world *state.World, conID int64, w, h int) (layout.Plan, layout.PositionResult) {
	sample := e.currentLocator().Locate(ctx)
	e.metrics.RecordCursorSample(string(sample.Source))
	ws := e.showWorkspace(world, sample)
	pos := layout.Position(layout.Cursor{X: sample.X, Y: sample.Y, Valid: sample.Valid}, w, h, ws)
	e.trace("window.position", map[string]any{
		"con":      conID,
		"x":        pos.X,
		"y":        pos.Y,
		"quadrant": pos.Quadrant,
		"reasons":  pos.Reasons,
		"fits":     pos.Fits,
		"cursor":   sample.Source,
	})
	var plan layout.Plan
	plan.Merge(layout.MoveAbsolute(conID, pos.X, pos.Y))
	return plan, pos
}

// showWorkspace resolves the geometry windows surface into: the workspace
// visible on the output under the cursor, falling back to the focused
// workspace, then the first active output when focus is unknown.
func (e *Engine) showWorkspace(world *state.World, sample cursor.Sample) layout.Workspace {
	e.mu.Lock()
	gaps := e.gaps
	e.mu.Unlock()
	if sample.Valid {
		if out := world.OutputAt(sample.X, sample.Y); out != nil {
			if ws, err := world.VisibleWorkspaceOn(out.Name); err == nil {
				return rectWorkspace(ws.Rect, gaps)
			}
			return rectWorkspace(out.Rect, gaps)
		}
	}
	if ws := world.FocusedWorkspace(); ws != nil {
		return rectWorkspace(ws.Rect, gaps)
	}
	for i := range world.Outputs {
		o := &world.Outputs[i]
		if o.Active {
			return rectWorkspace(o.Rect, gaps)
		}
	}
	return layout.Workspace{Gaps: gaps}
}

func rectWorkspace(r layout.Rect, gaps layout.Gaps) layout.Workspace {
	return layout.Workspace{
		Width:   r.Width,
		Height:  r.Height,
		OffsetX: r.X,
		OffsetY: r.Y,
		Gaps:    gaps,
	}
}

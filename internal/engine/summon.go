package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/state"
)

// SummonResult reports where a summoned window ended up.
type SummonResult struct {
	ConID     int64    `json:"conId"`
	Class     string   `json:"class,omitempty"`
	Title     string   `json:"title,omitempty"`
	Project   string   `json:"project,omitempty"`
	WasHidden bool     `json:"wasHidden"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Quadrant  string   `json:"quadrant,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Summon brings the first window matching the criteria to the cursor: hidden
// windows are shown and positioned, visible floating ones re-positioned, and
// the window ends up focused. A summoned window marked for another project is
// re-marked into the active one so the next sweep keeps it around.
func (e *Engine) Summon(ctx context.Context, criteria string) (SummonResult, error) {
	match, err := compileCriteria(criteria)
	if err != nil {
		return SummonResult{}, err
	}
	world, err := e.snapshot(ctx)
	if err != nil {
		return SummonResult{}, err
	}
	win := findTarget(world, match)
	if win == nil {
		return SummonResult{}, fmt.Errorf("no window matches %q", criteria)
	}
	active := e.ActiveProject()

	m, marked := mark.FromMarks(win.Marks)
	result := SummonResult{
		ConID:     win.ID,
		Class:     win.EffectiveClass(),
		Title:     win.Title,
		WasHidden: win.Hidden,
	}

	var plan layout.Plan
	remarked := marked && m.Project != active
	if marked {
		result.Project = m.Project
		if remarked {
			adopted := mark.Mark{Project: active, State: m.State}
			plan.Merge(layout.Mark(win.ID, adopted.Encode()))
			result.Project = active
			e.logger.Infof("summon re-marks window %d: %s -> %s", win.ID, m.Project, active)
		}
	}

	var pos layout.PositionResult
	if win.Hidden {
		plan.Merge(layout.ScratchpadShow(win.ID))
		st := m.State
		if st != nil && !st.Floating {
			plan.Merge(layout.FloatingSet(win.ID, false))
		} else {
			w, h := win.Geometry.Width, win.Geometry.Height
			if st != nil {
				w, h = st.Width, st.Height
				plan.Merge(layout.ResizeSet(win.ID, w, h))
			}
			var move layout.Plan
			move, pos = e.positionPlan(ctx, world, win.ID, w, h)
			plan.Merge(move)
		}
	} else if win.Floating {
		var move layout.Plan
		move, pos = e.positionPlan(ctx, world, win.ID, win.Geometry.Width, win.Geometry.Height)
		plan.Merge(move)
	}
	plan.Merge(layout.Focus(win.ID))

	if err := plan.Execute(ctx, e.wm); err != nil {
		e.metrics.RecordCommandError()
		return SummonResult{}, err
	}
	e.metrics.RecordCommands(len(plan.Commands))
	if win.Hidden {
		e.metrics.RecordShown()
	}
	if remarked {
		e.metrics.RecordMarkWritten()
	}

	result.X = pos.X
	result.Y = pos.Y
	result.Quadrant = string(pos.Quadrant)
	for _, r := range pos.Reasons {
		result.Reasons = append(result.Reasons, string(r))
	}
	return result, nil
}

// SaveState snapshots the window's current placement into its mark. Unmarked
// windows are claimed by the active project.
func (e *Engine) SaveState(ctx context.Context, conID int64) (string, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return "", err
	}
	win := world.FindWindow(conID)
	if win == nil {
		return "", fmt.Errorf("no window with con id %d", conID)
	}
	project := e.ActiveProject()
	if m, ok := mark.FromMarks(win.Marks); ok {
		project = m.Project
	}
	st := e.captureState(win)
	encoded := mark.Mark{Project: project, State: &st}.Encode()
	if err := layout.Mark(conID, encoded).Execute(ctx, e.wm); err != nil {
		e.metrics.RecordCommandError()
		return "", err
	}
	e.metrics.RecordCommands(1)
	e.metrics.RecordMarkWritten()
	e.logger.Infof("saved state for window %d: %s", conID, encoded)
	return encoded, nil
}

// RestoreState reapplies the placement stored in the window's mark: exact
// saved coordinates, not cursor positioning.
func (e *Engine) RestoreState(ctx context.Context, conID int64) (mark.State, error) {
	world, err := e.snapshot(ctx)
	if err != nil {
		return mark.State{}, err
	}
	win := world.FindWindow(conID)
	if win == nil {
		return mark.State{}, fmt.Errorf("no window with con id %d", conID)
	}
	m, ok := mark.FromMarks(win.Marks)
	if !ok {
		return mark.State{}, fmt.Errorf("window %d carries no scratch mark", conID)
	}
	if m.State == nil {
		if m.Err != nil {
			return mark.State{}, fmt.Errorf("window %d state unusable: %w", conID, m.Err)
		}
		return mark.State{}, fmt.Errorf("window %d mark has no saved state", conID)
	}
	st := *m.State

	var plan layout.Plan
	if win.Hidden {
		plan.Merge(layout.ScratchpadShow(conID))
	}
	plan.Merge(layout.FloatingSet(conID, st.Floating))
	if st.Floating {
		plan.Merge(layout.ResizeSet(conID, st.Width, st.Height))
		plan.Merge(layout.MoveAbsolute(conID, st.X, st.Y))
	}
	if err := plan.Execute(ctx, e.wm); err != nil {
		e.metrics.RecordCommandError()
		return mark.State{}, err
	}
	e.metrics.RecordCommands(len(plan.Commands))
	return st, nil
}

type targetMatcher func(*state.Window) bool

// compileCriteria turns a summon argument into a matcher: an integer matches
// a con id, anything else is a regexp over class, instance, and title.
func compileCriteria(criteria string) (targetMatcher, error) {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		return nil, errors.New("empty summon criteria")
	}
	if id, err := strconv.ParseInt(criteria, 10, 64); err == nil {
		return func(w *state.Window) bool { return w.ID == id }, nil
	}
	re, err := regexp.Compile(criteria)
	if err != nil {
		return nil, fmt.Errorf("invalid summon criteria %q: %w", criteria, err)
	}
	return func(w *state.Window) bool {
		return re.MatchString(w.EffectiveClass()) ||
			re.MatchString(w.Instance) ||
			re.MatchString(w.Title)
	}, nil
}

func findTarget(world *state.World, match targetMatcher) *state.Window {
	for i := range world.Windows {
		if match(&world.Windows[i]) {
			return &world.Windows[i]
		}
	}
	return nil
}

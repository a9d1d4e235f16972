package state

import (
	"context"
	"errors"

	"github.com/scratchd/scratchd/internal/layout"
)

// Workspace describes a workspace as reported by a workspace query. The rect
// is the usable area with bars already subtracted, which is exactly the space
// windows are positioned within.
type Workspace struct {
	Num     int         `json:"num"`
	Name    string      `json:"name"`
	Focused bool        `json:"focused"`
	Visible bool        `json:"visible"`
	Output  string      `json:"output"`
	Rect    layout.Rect `json:"rect"`
}

// Output describes a monitor as reported by an output query.
type Output struct {
	Name             string      `json:"name"`
	Active           bool        `json:"active"`
	Primary          bool        `json:"primary"`
	CurrentWorkspace string      `json:"current_workspace"`
	Rect             layout.Rect `json:"rect"`
}

// World is one causally consistent snapshot of the window manager.
type World struct {
	Windows    []Window
	Workspaces []Workspace
	Outputs    []Output
}

// DataSource abstracts the queries required to build a world snapshot.
type DataSource interface {
	GetTree(ctx context.Context) (*Node, error)
	GetWorkspaces(ctx context.Context) ([]Workspace, error)
	GetOutputs(ctx context.Context) ([]Output, error)
}

// NewWorld queries the data source and assembles a snapshot.
func NewWorld(ctx context.Context, src DataSource) (*World, error) {
	tree, err := src.GetTree(ctx)
	if err != nil {
		return nil, err
	}
	workspaces, err := src.GetWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	outputs, err := src.GetOutputs(ctx)
	if err != nil {
		return nil, err
	}
	world := &World{
		Windows:    tree.Windows(),
		Workspaces: workspaces,
		Outputs:    outputs,
	}
	workspaceOutput := make(map[string]string, len(workspaces))
	for _, ws := range workspaces {
		workspaceOutput[ws.Name] = ws.Output
	}
	for i := range world.Windows {
		w := &world.Windows[i]
		if w.Output == "" {
			if name, ok := workspaceOutput[w.Workspace]; ok {
				w.Output = name
			}
		}
	}
	return world, nil
}

// FindWindow returns the window with the container id, or nil.
func (w *World) FindWindow(id int64) *Window {
	for i := range w.Windows {
		if w.Windows[i].ID == id {
			return &w.Windows[i]
		}
	}
	return nil
}

// FocusedWindow returns the focused window, or nil.
func (w *World) FocusedWindow() *Window {
	for i := range w.Windows {
		if w.Windows[i].Focused {
			return &w.Windows[i]
		}
	}
	return nil
}

// FocusedWorkspace returns the focused workspace, or nil.
func (w *World) FocusedWorkspace() *Workspace {
	for i := range w.Workspaces {
		if w.Workspaces[i].Focused {
			return &w.Workspaces[i]
		}
	}
	return nil
}

// WorkspaceByName finds a workspace by name.
func (w *World) WorkspaceByName(name string) *Workspace {
	for i := range w.Workspaces {
		if w.Workspaces[i].Name == name {
			return &w.Workspaces[i]
		}
	}
	return nil
}

// OutputByName finds an output by name.
func (w *World) OutputByName(name string) *Output {
	for i := range w.Outputs {
		if w.Outputs[i].Name == name {
			return &w.Outputs[i]
		}
	}
	return nil
}

// OutputAt returns the active output whose rectangle contains the point.
func (w *World) OutputAt(x, y int) *Output {
	for i := range w.Outputs {
		o := &w.Outputs[i]
		if o.Active && o.Rect.Contains(x, y) {
			return o
		}
	}
	return nil
}

// VisibleWorkspaceOn resolves the workspace currently shown on an output.
func (w *World) VisibleWorkspaceOn(output string) (*Workspace, error) {
	o := w.OutputByName(output)
	if o == nil {
		return nil, errors.New("output not found")
	}
	ws := w.WorkspaceByName(o.CurrentWorkspace)
	if ws == nil {
		return nil, errors.New("output has no visible workspace")
	}
	return ws, nil
}

// CloneWorld returns a deep copy of the snapshot.
func CloneWorld(src *World) *World {
	if src == nil {
		return nil
	}
	copyWorld := *src
	if len(src.Windows) > 0 {
		copyWorld.Windows = append([]Window(nil), src.Windows...)
		for i := range copyWorld.Windows {
			if marks := copyWorld.Windows[i].Marks; len(marks) > 0 {
				copyWorld.Windows[i].Marks = append([]string(nil), marks...)
			}
		}
	}
	if len(src.Workspaces) > 0 {
		copyWorld.Workspaces = append([]Workspace(nil), src.Workspaces...)
	}
	if len(src.Outputs) > 0 {
		copyWorld.Outputs = append([]Output(nil), src.Outputs...)
	}
	return &copyWorld
}

package state

import (
	"context"
	"testing"

	"github.com/scratchd/scratchd/internal/layout"
)

type fakeSource struct {
	tree       *Node
	workspaces []Workspace
	outputs    []Output
}

func (f *fakeSource) GetTree(ctx context.Context) (*Node, error) {
	return f.tree, nil
}

func (f *fakeSource) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	return f.workspaces, nil
}

func (f *fakeSource) GetOutputs(ctx context.Context) ([]Output, error) {
	return f.outputs, nil
}

func testSource() *fakeSource {
	ws := &Node{ID: 7, Name: "1", Type: "workspace", Num: 1, Nodes: []*Node{
		{ID: 20, Name: "editor", Type: "con", Window: 9002},
	}}
	return &fakeSource{
		tree: &Node{ID: 1, Type: "root", Nodes: []*Node{ws}},
		workspaces: []Workspace{
			{Num: 1, Name: "1", Focused: true, Visible: true, Output: "eDP-1", Rect: layout.Rect{X: 0, Y: 25, Width: 1920, Height: 1055}},
			{Num: 2, Name: "2", Output: "DP-3", Visible: true, Rect: layout.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
		},
		outputs: []Output{
			{Name: "__i3", Active: false, Rect: layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
			{Name: "eDP-1", Active: true, Primary: true, CurrentWorkspace: "1", Rect: layout.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}},
			{Name: "DP-3", Active: true, CurrentWorkspace: "2", Rect: layout.Rect{X: 1920, Y: 0, Width: 2560, Height: 1440}},
		},
	}
}

func TestNewWorldFillsMissingWindowOutput(t *testing.T) {
	world, err := NewWorld(context.Background(), testSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := world.FindWindow(20)
	if w == nil {
		t.Fatalf("expected window 20 in snapshot")
	}
	if w.Output != "eDP-1" {
		t.Fatalf("expected output filled from workspace query, got %q", w.Output)
	}
}

func TestWorldLookups(t *testing.T) {
	world, err := NewWorld(context.Background(), testSource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws := world.FocusedWorkspace(); ws == nil || ws.Name != "1" {
		t.Fatalf("expected focused workspace 1, got %+v", ws)
	}
	if o := world.OutputAt(2000, 700); o == nil || o.Name != "DP-3" {
		t.Fatalf("expected point on second monitor, got %+v", o)
	}
	if o := world.OutputAt(100, 100); o == nil || o.Name != "eDP-1" {
		t.Fatalf("expected inactive internal output to be skipped, got %+v", o)
	}
	ws, err := world.VisibleWorkspaceOn("DP-3")
	if err != nil || ws.Name != "2" {
		t.Fatalf("expected visible workspace 2 on DP-3, got %+v err=%v", ws, err)
	}
	if _, err := world.VisibleWorkspaceOn("HDMI-9"); err == nil {
		t.Fatalf("expected unknown output to error")
	}
}

func TestCloneWorldIsDeep(t *testing.T) {
	world := &World{
		Windows:    []Window{{ID: 1, Marks: []string{"scratch:web"}}},
		Workspaces: []Workspace{{Name: "1"}},
		Outputs:    []Output{{Name: "eDP-1"}},
	}
	clone := CloneWorld(world)
	clone.Windows[0].Marks[0] = "mutated"
	clone.Workspaces[0].Name = "9"
	if world.Windows[0].Marks[0] != "scratch:web" {
		t.Fatalf("expected marks to be deep copied")
	}
	if world.Workspaces[0].Name != "1" {
		t.Fatalf("expected workspaces to be copied")
	}
	if CloneWorld(nil) != nil {
		t.Fatalf("expected nil clone for nil world")
	}
}

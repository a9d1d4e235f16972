package state

import (
	"github.com/scratchd/scratchd/internal/layout"
)

// ScratchpadWorkspace is the workspace the window manager parks hidden
// scratchpad windows on. A window is hidden exactly when it lives here.
const ScratchpadWorkspace = "__i3_scratch"

// Node is one vertex of the window manager's layout tree as returned by a
// tree query. Only the fields the daemon reads are modeled.
type Node struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	Num              int               `json:"num"`
	Rect             layout.Rect       `json:"rect"`
	Marks            []string          `json:"marks"`
	Focused          bool              `json:"focused"`
	AppID            string            `json:"app_id"`
	PID              int               `json:"pid"`
	Window           int64             `json:"window"`
	WindowProperties *WindowProperties `json:"window_properties"`
	ScratchpadState  string            `json:"scratchpad_state"`
	Nodes            []*Node           `json:"nodes"`
	FloatingNodes    []*Node           `json:"floating_nodes"`
}

// WindowProperties carries the X11 identity of a window.
type WindowProperties struct {
	Class    string `json:"class"`
	Instance string `json:"instance"`
	Title    string `json:"title"`
}

// Window is one managed window extracted from a tree snapshot.
type Window struct {
	ID           int64
	Class        string
	Instance     string
	Title        string
	AppID        string
	PID          int
	Workspace    string
	WorkspaceNum int
	Output       string
	Marks        []string
	Floating     bool
	Geometry     layout.Rect
	Focused      bool
	Hidden       bool
}

// EffectiveClass returns the X11 class, falling back to the Wayland app id
// for windows that have no X11 identity.
func (w Window) EffectiveClass() string {
	if w.Class != "" {
		return w.Class
	}
	return w.AppID
}

// Windows flattens the tree into window records in traversal order.
func (n *Node) Windows() []Window {
	var out []Window
	walkTree(n, "", nil, false, &out)
	return out
}

func walkTree(n *Node, output string, ws *Node, floating bool, out *[]Window) {
	switch n.Type {
	case "output":
		output = n.Name
	case "workspace":
		ws = n
	}
	if ws != nil && n.isWindow() {
		*out = append(*out, n.toWindow(output, ws, floating))
	}
	for _, child := range n.Nodes {
		walkTree(child, output, ws, floating, out)
	}
	for _, child := range n.FloatingNodes {
		walkTree(child, output, ws, true, out)
	}
}

// isWindow reports whether the node is a leaf container backed by an actual
// application window rather than a layout split.
func (n *Node) isWindow() bool {
	if len(n.Nodes) > 0 || len(n.FloatingNodes) > 0 {
		return false
	}
	if n.Type != "con" && n.Type != "floating_con" {
		return false
	}
	return n.WindowProperties != nil || n.AppID != "" || n.Window != 0 || n.PID != 0
}

func (n *Node) toWindow(output string, ws *Node, floating bool) Window {
	w := Window{
		ID:           n.ID,
		AppID:        n.AppID,
		PID:          n.PID,
		Title:        n.Name,
		Workspace:    ws.Name,
		WorkspaceNum: ws.Num,
		Output:       output,
		Floating:     floating || n.Type == "floating_con",
		Geometry:     n.Rect,
		Focused:      n.Focused,
		Hidden:       ws.Name == ScratchpadWorkspace,
	}
	if len(n.Marks) > 0 {
		w.Marks = append([]string(nil), n.Marks...)
	}
	if p := n.WindowProperties; p != nil {
		w.Class = p.Class
		w.Instance = p.Instance
		if p.Title != "" {
			w.Title = p.Title
		}
	}
	return w
}

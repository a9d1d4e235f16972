package layout

// Rect is an absolute-coordinate rectangle in pixels. The JSON shape matches
// the window manager's wire format so tree payloads decode directly into it.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Gaps is the minimum pixel margin a floating window keeps from each
// workspace edge.
type Gaps struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Workspace is the geometry a window is positioned within: logical size,
// the absolute offset of its origin, and the gaps in effect.
type Workspace struct {
	Width   int
	Height  int
	OffsetX int
	OffsetY int
	Gaps    Gaps
}

// AvailableWidth returns the horizontal space left between the gaps.
func (w Workspace) AvailableWidth() int {
	return w.Width - w.Gaps.Left - w.Gaps.Right
}

// AvailableHeight returns the vertical space left between the gaps.
func (w Workspace) AvailableHeight() int {
	return w.Height - w.Gaps.Top - w.Gaps.Bottom
}

// Cursor is the pointer sample the positioner consumes, in absolute
// coordinates. Valid=false means no usable pointer position exists and the
// workspace center is substituted.
type Cursor struct {
	X     int
	Y     int
	Valid bool
}

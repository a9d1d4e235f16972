package layout

// Quadrant identifies the workspace region containing the cursor, split at
// the workspace midpoint. The midpoint itself belongs to the lower and right
// halves.
type Quadrant string

const (
	QuadrantUpperLeft  Quadrant = "upper-left"
	QuadrantUpperRight Quadrant = "upper-right"
	QuadrantLowerLeft  Quadrant = "lower-left"
	QuadrantLowerRight Quadrant = "lower-right"
)

// Reason tags a constraint the positioner applied.
type Reason string

const (
	ReasonCentered          Reason = "centered"
	ReasonConstrainedTop    Reason = "constrained-top"
	ReasonConstrainedBottom Reason = "constrained-bottom"
	ReasonConstrainedLeft   Reason = "constrained-left"
	ReasonConstrainedRight  Reason = "constrained-right"
	ReasonOversizedFallback Reason = "oversized-fallback"
	ReasonCursorInvalid     Reason = "cursor-invalid"
)

// PositionResult is the positioner's verdict: absolute top-left coordinates,
// the constraints applied in order, the quadrant the cursor fell in, and
// whether the window fits the available space on both axes.
type PositionResult struct {
	X        int
	Y        int
	Reasons  []Reason
	Quadrant Quadrant
	Fits     bool
}

// Position computes where a floating window of the given size belongs so
// that it hugs the cursor without crossing the configured gaps.
//
// The window is centered on the cursor (integer division; the half-pixel
// bias on odd sizes is deliberate), then clamped once per axis against the
// boundary of the cursor's quadrant. A centered position within one gap
// width of a boundary snaps onto it, so near-edge summons land flush with
// the gap instead of a sliver away from it. An axis the window cannot fit
// on anchors at the gap origin. An invalid cursor skips quadrant logic and
// yields the gap-clamped workspace center.
func Position(cur Cursor, winW, winH int, ws Workspace) PositionResult {
	breakX := ws.Width - (ws.Gaps.Right + winW)
	breakY := ws.Height - (ws.Gaps.Bottom + winH)

	if !cur.Valid {
		return centerFallback(winW, winH, ws, breakX, breakY)
	}

	res := PositionResult{Fits: breakX >= 0 && breakY >= 0}

	// Work in workspace-local coordinates; the offset is re-added at the end.
	cx := cur.X - ws.OffsetX
	cy := cur.Y - ws.OffsetY

	lower := cy >= ws.Height/2
	right := cx >= ws.Width/2
	res.Quadrant = quadrantOf(lower, right)

	if breakX >= 0 || breakY >= 0 {
		res.Reasons = append(res.Reasons, ReasonCentered)
	}

	var y int
	if breakY < 0 {
		y = ws.Gaps.Top
		res.Reasons = append(res.Reasons, ReasonOversizedFallback)
	} else {
		tmpY := cy - winH/2
		y = clampAxis(tmpY, lower, ws.Gaps.Top, ws.Gaps.Bottom, breakY)
		if y != tmpY {
			if y == breakY && (y != ws.Gaps.Top || lower) {
				res.Reasons = append(res.Reasons, ReasonConstrainedBottom)
			} else {
				res.Reasons = append(res.Reasons, ReasonConstrainedTop)
			}
		}
	}

	var x int
	if breakX < 0 {
		x = ws.Gaps.Left
		res.Reasons = append(res.Reasons, ReasonOversizedFallback)
	} else {
		tmpX := cx - winW/2
		x = clampAxis(tmpX, right, ws.Gaps.Left, ws.Gaps.Right, breakX)
		if x != tmpX {
			if x == breakX && (x != ws.Gaps.Left || right) {
				res.Reasons = append(res.Reasons, ReasonConstrainedRight)
			} else {
				res.Reasons = append(res.Reasons, ReasonConstrainedLeft)
			}
		}
	}

	res.X = x + ws.OffsetX
	res.Y = y + ws.OffsetY
	return res
}

// clampAxis applies the quadrant snap followed by the hard gap bounds.
// towardBreak selects the lower/right half, which clamps toward the break
// line; the upper/left half clamps toward the gap origin.
func clampAxis(tmp int, towardBreak bool, gapNear, gapFar, brk int) int {
	v := tmp
	if towardBreak {
		if tmp >= brk-gapFar {
			v = brk
		}
	} else if tmp <= 2*gapNear {
		v = gapNear
	}
	if v < gapNear {
		v = gapNear
	}
	if v > brk {
		v = brk
	}
	return v
}

func centerFallback(winW, winH int, ws Workspace, breakX, breakY int) PositionResult {
	res := PositionResult{
		Fits:    breakX >= 0 && breakY >= 0,
		Reasons: []Reason{ReasonCursorInvalid},
	}

	y := (ws.Height - winH) / 2
	if breakY < 0 {
		y = ws.Gaps.Top
		res.Reasons = append(res.Reasons, ReasonOversizedFallback)
	} else {
		y = clampBounds(y, ws.Gaps.Top, breakY)
	}

	x := (ws.Width - winW) / 2
	if breakX < 0 {
		x = ws.Gaps.Left
		res.Reasons = append(res.Reasons, ReasonOversizedFallback)
	} else {
		x = clampBounds(x, ws.Gaps.Left, breakX)
	}

	res.X = x + ws.OffsetX
	res.Y = y + ws.OffsetY
	return res
}

func clampBounds(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func quadrantOf(lower, right bool) Quadrant {
	switch {
	case lower && right:
		return QuadrantLowerRight
	case lower:
		return QuadrantLowerLeft
	case right:
		return QuadrantUpperRight
	default:
		return QuadrantUpperLeft
	}
}

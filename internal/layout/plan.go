package layout

import (
	"context"
	"fmt"
)

// CommandRunner executes window manager commands.
type CommandRunner interface {
	RunCommand(ctx context.Context, command string) error
}

// Plan is a collection of sequential window manager commands.
type Plan struct {
	Commands []string
}

// Add appends a formatted command.
func (p *Plan) Add(format string, args ...interface{}) {
	p.Commands = append(p.Commands, fmt.Sprintf(format, args...))
}

// Merge merges other plan into this one.
func (p *Plan) Merge(other Plan) {
	p.Commands = append(p.Commands, other.Commands...)
}

// Mark replaces the window's marks with the provided value.
func Mark(conID int64, mark string) Plan {
	var p Plan
	p.Add("[con_id=%d] mark --replace %s", conID, mark)
	return p
}

// Unmark removes a single mark from the window.
func Unmark(conID int64, mark string) Plan {
	var p Plan
	p.Add("[con_id=%d] unmark %s", conID, mark)
	return p
}

// MoveToScratchpad hides the window on the scratchpad workspace.
func MoveToScratchpad(conID int64) Plan {
	var p Plan
	p.Add("[con_id=%d] move scratchpad", conID)
	return p
}

// ScratchpadShow pulls the window back from the scratchpad workspace.
func ScratchpadShow(conID int64) Plan {
	var p Plan
	p.Add("[con_id=%d] scratchpad show", conID)
	return p
}

// FloatingSet enables or disables floating for the window.
func FloatingSet(conID int64, enabled bool) Plan {
	var p Plan
	val := "disable"
	if enabled {
		val = "enable"
	}
	p.Add("[con_id=%d] floating %s", conID, val)
	return p
}

// ResizeSet resizes the window to an exact pixel size.
func ResizeSet(conID int64, width, height int) Plan {
	var p Plan
	p.Add("[con_id=%d] resize set %d px %d px", conID, width, height)
	return p
}

// MoveAbsolute moves the window to absolute screen coordinates.
func MoveAbsolute(conID int64, x, y int) Plan {
	var p Plan
	p.Add("[con_id=%d] move absolute position %d px %d px", conID, x, y)
	return p
}

// Focus focuses the window.
func Focus(conID int64) Plan {
	var p Plan
	p.Add("[con_id=%d] focus", conID)
	return p
}

// Execute applies the plan sequentially using the runner.
func (p Plan) Execute(ctx context.Context, r CommandRunner) error {
	for _, cmd := range p.Commands {
		if err := r.RunCommand(ctx, cmd); err != nil {
			return fmt.Errorf("run %q: %w", cmd, err)
		}
	}
	return nil
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/state"
)

// RecoveryKind classifies entries in the recovery log.
type RecoveryKind string

const (
	RecoveryDisconnect   RecoveryKind = "disconnect"
	RecoveryReconnect    RecoveryKind = "reconnect"
	RecoveryStateRebuild RecoveryKind = "state-rebuild"

	recoveryLogLimit = 64
)

// RecoveryEvent is one diagnostics entry about connection loss and state
// rebuilds. The log is bounded and only served through the control socket.
type RecoveryEvent struct {
	Kind   RecoveryKind `json:"kind"`
	At     time.Time    `json:"at"`
	Detail string       `json:"detail,omitempty"`
}

type recoveryLog struct {
	mu      sync.Mutex
	entries []RecoveryEvent
	limit   int
}

func newRecoveryLog(limit int) *recoveryLog {
	if limit <= 0 {
		limit = recoveryLogLimit
	}
	return &recoveryLog{limit: limit}
}

func (l *recoveryLog) add(ev RecoveryEvent) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit > 0 && len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, ev)
}

func (l *recoveryLog) snapshot() []RecoveryEvent {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	return append([]RecoveryEvent(nil), l.entries...)
}

// RecoveryLog returns the buffered recovery history.
func (e *Engine) RecoveryLog() []RecoveryEvent {
	return e.recovery.snapshot()
}

// Recover rebuilds every in-memory assumption from window manager ground
// truth: fresh snapshot, re-derived active project, full sweep. Idempotent
// and safe to re-trigger at any time.
func (e *Engine) Recover(ctx context.Context, detail string) error {
	world, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	fallback := e.defaultProject
	previous := e.activeProject
	e.mu.Unlock()

	active, derived := deriveActiveProject(world)
	if !derived {
		active = fallback
	}
	e.mu.Lock()
	e.activeProject = active
	e.mu.Unlock()

	if active != previous {
		e.logger.Infof("recovery: active project %s (was %s)", active, previous)
	}
	e.recovery.add(RecoveryEvent{Kind: RecoveryStateRebuild, At: e.now(), Detail: detail})
	e.trace("recovery.rebuild", map[string]any{
		"project": active,
		"derived": derived,
		"windows": len(world.Windows),
	})
	_, err = e.sweep(ctx, world)
	return err
}

// deriveActiveProject votes with the marks of visible windows: the project
// with the most on-screen windows wins, smaller names breaking ties. Returns
// false when nothing visible carries a mark.
func deriveActiveProject(world *state.World) (string, bool) {
	votes := make(map[string]int)
	for i := range world.Windows {
		win := &world.Windows[i]
		if win.Hidden {
			continue
		}
		if m, ok := mark.FromMarks(win.Marks); ok {
			votes[m.Project]++
		}
	}
	best := ""
	bestCount := 0
	for project, count := range votes {
		if count > bestCount || (count == bestCount && project < best) {
			best = project
			bestCount = count
		}
	}
	return best, best != ""
}

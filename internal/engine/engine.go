package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/ipc"
	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/rules"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

type wmClient interface {
	state.DataSource
	layout.CommandRunner
	GetMarks(ctx context.Context) ([]string, error)
}

type pointerLocator interface {
	Locate(ctx context.Context) cursor.Sample
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	*time.Ticker
}

func (t realTicker) C() <-chan time.Time {
	return t.Ticker.C
}

const defaultPeriodicSweepInterval = 60 * time.Second

// Engine ties together the world snapshot, the classifier, the mark codec,
// and the positioner, and drives them from the event feed. All mutation runs
// through methods that serialize on the engine mutex.
type Engine struct {
	wm      wmClient
	logger  *util.Logger
	metrics *metrics.Collector
	locator pointerLocator

	mu             sync.Mutex
	activeProject  string
	defaultProject string
	projects       []string
	rules          *rules.Set
	gaps           layout.Gaps
	stagger        time.Duration
	lastWorld      *state.World
	linkUp         bool
	everConnected  bool

	recovery *recoveryLog

	now           func() time.Time
	tickerFactory func() ticker
}

// New creates an engine bound to the window manager client and the cursor
// locator, initialized from the configuration.
func New(wm wmClient, logger *util.Logger, collector *metrics.Collector, locator pointerLocator, cfg *config.Config) (*Engine, error) {
	e := &Engine{
		wm:       wm,
		logger:   logger,
		metrics:  collector,
		locator:  locator,
		recovery: newRecoveryLog(0),
		now:      time.Now,
		tickerFactory: func() ticker {
			return realTicker{time.NewTicker(defaultPeriodicSweepInterval)}
		},
	}
	if err := e.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// ApplyConfig installs a new configuration. The active project survives a
// reload; a fresh engine starts on the configured default.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	set, err := rules.Build(cfg.Rules)
	if err != nil {
		return err
	}
	projects := make([]string, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects = append(projects, p.Name)
	}
	e.mu.Lock()
	e.rules = set
	e.gaps = layout.Gaps{
		Top:    cfg.Gaps.Top,
		Bottom: cfg.Gaps.Bottom,
		Left:   cfg.Gaps.Left,
		Right:  cfg.Gaps.Right,
	}
	e.defaultProject = cfg.DefaultProject
	e.projects = projects
	e.stagger = time.Duration(cfg.Reconcile.StaggerMs) * time.Millisecond
	if e.activeProject == "" {
		e.activeProject = cfg.DefaultProject
	}
	e.mu.Unlock()
	e.logger.Infof("configuration applied: %d rules, %d projects", len(cfg.Rules), len(projects))
	return nil
}

// SetLocator swaps the cursor backend, used when a reload changes it.
func (e *Engine) SetLocator(locator pointerLocator) {
	e.mu.Lock()
	e.locator = locator
	e.mu.Unlock()
}

func (e *Engine) currentLocator() pointerLocator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locator
}

// ActiveProject returns the project windows are currently scoped to.
func (e *Engine) ActiveProject() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeProject
}

// Projects returns the declared project names.
func (e *Engine) Projects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.projects...)
}

// SetProject swaps the active project and sweeps so window visibility
// converges on the new context. Any name the mark codec can carry is
// accepted; the declared project list is advisory.
func (e *Engine) SetProject(ctx context.Context, name string) (ReconcileResult, error) {
	if err := config.ValidateProjectName(name); err != nil {
		return ReconcileResult{}, err
	}
	e.mu.Lock()
	previous := e.activeProject
	e.activeProject = name
	e.mu.Unlock()
	if previous != name {
		e.logger.Infof("project switched: %s -> %s", previous, name)
	}
	return e.Reconcile(ctx)
}

// Run consumes the event feed until the context ends. Connected entries
// precede the events read on their connection, so recovery always re-derives
// state before anything newer is applied.
func (e *Engine) Run(ctx context.Context, events <-chan ipc.Event) error {
	tick := e.newTicker()
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C():
			if !e.connected() {
				continue
			}
			e.logger.Debugf("periodic sweep tick")
			if _, err := e.Reconcile(ctx); err != nil {
				if ctx.Err() != nil {
					e.logger.Debugf("periodic sweep aborted: %v", err)
				} else {
					e.logger.Errorf("periodic sweep failed: %v", err)
				}
			}
		case ev, ok := <-events:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fmt.Errorf("event feed closed")
			}
			e.handleEvent(ctx, ev)
		}
	}
}

func (e *Engine) newTicker() ticker {
	if e.tickerFactory != nil {
		return e.tickerFactory()
	}
	return realTicker{time.NewTicker(defaultPeriodicSweepInterval)}
}

func (e *Engine) connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.linkUp
}

func (e *Engine) handleEvent(ctx context.Context, ev ipc.Event) {
	e.trace("event.received", map[string]any{"kind": ev.Kind, "change": ev.Change})
	switch ev.Kind {
	case ipc.EventConnected:
		e.mu.Lock()
		first := !e.everConnected
		e.everConnected = true
		e.linkUp = true
		e.mu.Unlock()
		detail := "initial connection"
		if !first {
			detail = "connection re-established"
			e.metrics.RecordReconnect()
			e.recovery.add(RecoveryEvent{Kind: RecoveryReconnect, At: e.now(), Detail: detail})
		}
		if err := e.Recover(ctx, detail); err != nil {
			e.logger.Errorf("recovery failed: %v", err)
		}
	case ipc.EventDisconnected:
		e.mu.Lock()
		e.linkUp = false
		e.mu.Unlock()
		e.logger.Warnf("window manager link lost")
		e.recovery.add(RecoveryEvent{Kind: RecoveryDisconnect, At: e.now(), Detail: "event stream failed"})
	case ipc.EventShutdown:
		e.logger.Infof("window manager shutdown: %s", ev.Change)
	case ipc.EventWindow:
		if !visibilityRelevant(ev.Change) {
			return
		}
		if _, err := e.Reconcile(ctx); err != nil {
			e.logger.Errorf("sweep after window %s failed: %v", ev.Change, err)
		}
	case ipc.EventWorkspace, ipc.EventOutput:
		// Geometry is re-read at positioning time; nothing to correct now.
	}
}

// visibilityRelevant filters window events down to the changes that can move
// a window in or out of its desired visibility.
func visibilityRelevant(change string) bool {
	switch change {
	case "new", "move", "floating", "mark":
		return true
	default:
		return false
	}
}

// snapshot queries the window manager and caches the result for diagnostics.
func (e *Engine) snapshot(ctx context.Context) (*state.World, error) {
	world, err := state.NewWorld(ctx, e.wm)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	e.mu.Lock()
	e.lastWorld = world
	e.mu.Unlock()
	return world, nil
}

// LastWorld returns the most recent snapshot, or nil before the first one.
func (e *Engine) LastWorld() *state.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return state.CloneWorld(e.lastWorld)
}

func (e *Engine) trace(event string, fields map[string]any) {
	if e.logger == nil {
		return
	}
	e.logger.Tracef("%s %s", event, formatTraceFields(fields))
}

func formatTraceFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		val, err := json.Marshal(fields[k])
		if err != nil {
			b.WriteString(strconv.Quote(fmt.Sprintf("<marshal error: %v>", err)))
			continue
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.String()
}

// Package metrics keeps in-process counters for the daemon's activity. There
// is no export pipeline; the control server serves snapshots on demand.
package metrics

import (
	"sync"
	"time"
)

// Collector aggregates counters across the engine and IPC layers.
type Collector struct {
	mu             sync.RWMutex
	started        time.Time
	sweeps         uint64
	commands       uint64
	commandErrors  uint64
	windowsHidden  uint64
	windowsShown   uint64
	marksWritten   uint64
	decodeFailures uint64
	reconnects     uint64
	cursorSamples  map[string]uint64
}

// Snapshot is the serializable view of the current counters.
type Snapshot struct {
	Started        time.Time         `json:"started"`
	Sweeps         uint64            `json:"sweeps"`
	Commands       uint64            `json:"commands"`
	CommandErrors  uint64            `json:"commandErrors"`
	WindowsHidden  uint64            `json:"windowsHidden"`
	WindowsShown   uint64            `json:"windowsShown"`
	MarksWritten   uint64            `json:"marksWritten"`
	DecodeFailures uint64            `json:"decodeFailures"`
	Reconnects     uint64            `json:"reconnects"`
	CursorSamples  map[string]uint64 `json:"cursorSamples,omitempty"`
}

// NewCollector returns an empty collector stamped with the start time.
func NewCollector() *Collector {
	return &Collector{
		started:       time.Now(),
		cursorSamples: make(map[string]uint64),
	}
}

func (c *Collector) update(mutate func()) {
	if c == nil {
		return
	}
	c.mu.Lock()
	mutate()
	c.mu.Unlock()
}

// RecordSweep counts one completed reconciliation sweep.
func (c *Collector) RecordSweep() {
	c.update(func() { c.sweeps++ })
}

// RecordCommands counts dispatched window manager commands.
func (c *Collector) RecordCommands(n int) {
	if n <= 0 {
		return
	}
	c.update(func() { c.commands += uint64(n) })
}

// RecordCommandError counts a failed command dispatch.
func (c *Collector) RecordCommandError() {
	c.update(func() { c.commandErrors++ })
}

// RecordHidden counts a window moved to the scratchpad.
func (c *Collector) RecordHidden() {
	c.update(func() { c.windowsHidden++ })
}

// RecordShown counts a window pulled back from the scratchpad.
func (c *Collector) RecordShown() {
	c.update(func() { c.windowsShown++ })
}

// RecordMarkWritten counts a mark --replace write.
func (c *Collector) RecordMarkWritten() {
	c.update(func() { c.marksWritten++ })
}

// RecordDecodeFailure counts a mark whose state segment failed to decode.
func (c *Collector) RecordDecodeFailure() {
	c.update(func() { c.decodeFailures++ })
}

// RecordReconnect counts a re-established window manager connection.
func (c *Collector) RecordReconnect() {
	c.update(func() { c.reconnects++ })
}

// RecordCursorSample counts one cursor resolution by tier.
func (c *Collector) RecordCursorSample(source string) {
	c.update(func() {
		if c.cursorSamples == nil {
			c.cursorSamples = make(map[string]uint64)
		}
		c.cursorSamples[source]++
	})
}

// Snapshot returns the current counters for serialization or display.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{
		Started:        c.started,
		Sweeps:         c.sweeps,
		Commands:       c.commands,
		CommandErrors:  c.commandErrors,
		WindowsHidden:  c.windowsHidden,
		WindowsShown:   c.windowsShown,
		MarksWritten:   c.marksWritten,
		DecodeFailures: c.decodeFailures,
		Reconnects:     c.reconnects,
	}
	if len(c.cursorSamples) > 0 {
		snap.CursorSamples = make(map[string]uint64, len(c.cursorSamples))
		for k, v := range c.cursorSamples {
			snap.CursorSamples[k] = v
		}
	}
	return snap
}

package control

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	// SocketFileName is the filename of the control socket within the runtime dir.
	SocketFileName = "control.sock"

	// SocketEnv overrides the control socket location when set.
	SocketEnv = "SCRATCHD_CONTROL_SOCKET"

	// Action names supported by the control protocol.
	ActionProjectGet   = "project.get"
	ActionProjectSet   = "project.set"
	ActionReconcile    = "reconcile"
	ActionSummon       = "summon"
	ActionStateSave    = "state.save"
	ActionStateRestore = "state.restore"
	ActionRecover      = "recover"
	ActionStatus       = "status"
	ActionWindows      = "windows"
	ActionDump         = "dump"
	ActionReload       = "reload"

	// Response statuses.
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ProjectStatus describes the daemon's active project and the configured set.
type ProjectStatus struct {
	Active   string   `json:"active"`
	Projects []string `json:"projects,omitempty"`
}

// SavedMark carries the mark written to a window by a state.save request.
type SavedMark struct {
	ConID int64  `json:"conId"`
	Mark  string `json:"mark"`
}

// RestoredState reports the placement a state.restore request reapplied.
type RestoredState struct {
	ConID     int64  `json:"conId"`
	Floating  bool   `json:"floating"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SavedAt   int64  `json:"savedAt"`
	Workspace int    `json:"workspace"`
	Monitor   string `json:"monitor,omitempty"`
}

// DefaultSocketPath returns the expected location of the scratchd control socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv(SocketEnv); env != "" {
		return env, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	base := runtimeDir
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "scratchd", SocketFileName), nil
}

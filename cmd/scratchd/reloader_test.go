package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

type testWM struct{}

func (testWM) GetTree(context.Context) (*state.Node, error) {
	return &state.Node{ID: 1, Name: "root", Type: "root"}, nil
}
func (testWM) GetWorkspaces(context.Context) ([]state.Workspace, error) { return nil, nil }
func (testWM) GetOutputs(context.Context) ([]state.Output, error)      { return nil, nil }
func (testWM) GetMarks(context.Context) ([]string, error)              { return nil, nil }
func (testWM) RunCommand(context.Context, string) error                { return nil }

type testLocator struct{}

func (testLocator) Locate(context.Context) cursor.Sample { return cursor.Sample{} }

type recordingCloser struct {
	closed bool
}

func (c *recordingCloser) Close() error {
	c.closed = true
	return nil
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func newTestReloader(t *testing.T, initial string, closer io.Closer) (*configReloader, string, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, initial)

	cfg, err := config.Parse([]byte(initial))
	if err != nil {
		t.Fatalf("parse initial config: %v", err)
	}
	var logs bytes.Buffer
	logger := util.NewLoggerWithWriter(util.LevelInfo, &logs)
	eng, err := engine.New(testWM{}, logger, metrics.NewCollector(), testLocator{}, cfg)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	reloader := newConfigReloader(path, logger, eng, cfg, []byte(initial), closer, false)
	return reloader, path, &logs
}

func TestReloadKeepsPreviousConfigOnFailure(t *testing.T) {
	initial := strings.TrimPrefix(`
defaultProject: dev
gaps: 10
rules:
  - pattern: "^kitty$"
    type: class
    scope: scoped
`, "\n")
	bad := strings.TrimPrefix(`
defaultProject: "bad|name"
gaps: 10
`, "\n")

	reloader, path, logs := newTestReloader(t, initial, nil)
	writeConfig(t, path, bad)

	err := reloader.Reload(context.Background(), "test reason")
	if err == nil {
		t.Fatal("expected reload error, got nil")
	}
	if !strings.Contains(err.Error(), "defaultProject") {
		t.Fatalf("expected defaultProject error, got %v", err)
	}
	logOutput := logs.String()
	if !strings.Contains(logOutput, "config change rejected; diff vs last valid config") {
		t.Fatalf("expected diff log, got %s", logOutput)
	}
	if strings.Contains(logOutput, "config reloaded") {
		t.Fatalf("config must not be committed on failure: %s", logOutput)
	}
	if reloader.lastConfig.DefaultProject != "dev" {
		t.Fatalf("expected previous config kept, got %q", reloader.lastConfig.DefaultProject)
	}
	if reloader.engine.ActiveProject() != "dev" {
		t.Fatalf("expected engine untouched, got %q", reloader.engine.ActiveProject())
	}
}

func TestReloadAppliesValidConfig(t *testing.T) {
	initial := strings.TrimPrefix(`
defaultProject: dev
logLevel: info
gaps: 10
`, "\n")
	updated := strings.TrimPrefix(`
defaultProject: dev
logLevel: debug
gaps: 20
`, "\n")

	reloader, path, logs := newTestReloader(t, initial, nil)
	writeConfig(t, path, updated)

	if err := reloader.Reload(context.Background(), "test reason"); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if !strings.Contains(logs.String(), "config reloaded") {
		t.Fatalf("expected reload log, got %s", logs.String())
	}
	if reloader.lastConfig.Gaps.Top != 20 {
		t.Fatalf("expected new gaps committed, got %+v", reloader.lastConfig.Gaps)
	}
	if reloader.logger.Level() != util.LevelDebug {
		t.Fatalf("expected log level raised to debug, got %v", reloader.logger.Level())
	}
}

func TestReloadKeepsPinnedLogLevel(t *testing.T) {
	initial := "defaultProject: dev\nlogLevel: info\n"
	updated := "defaultProject: dev\nlogLevel: debug\n"

	reloader, path, _ := newTestReloader(t, initial, nil)
	reloader.levelPinned = true
	writeConfig(t, path, updated)

	if err := reloader.Reload(context.Background(), "test reason"); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if reloader.logger.Level() != util.LevelInfo {
		t.Fatalf("expected pinned level kept, got %v", reloader.logger.Level())
	}
}

func TestReloadRebuildsCursorBackend(t *testing.T) {
	initial := strings.TrimPrefix(`
defaultProject: dev
cursor:
  backend: none
  timeoutMs: 150
`, "\n")
	updated := strings.TrimPrefix(`
defaultProject: dev
cursor:
  backend: none
  timeoutMs: 200
`, "\n")

	closer := &recordingCloser{}
	reloader, path, logs := newTestReloader(t, initial, closer)
	writeConfig(t, path, updated)

	if err := reloader.Reload(context.Background(), "test reason"); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if !closer.closed {
		t.Fatal("expected previous cursor backend to be closed")
	}
	if !strings.Contains(logs.String(), "cursor backend reconfigured") {
		t.Fatalf("expected cursor reload log, got %s", logs.String())
	}

	// An unchanged cursor section must not rebuild the backend.
	second := &recordingCloser{}
	reloader.cursorCloser = second
	if err := reloader.Reload(context.Background(), "test reason"); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if second.closed {
		t.Fatal("expected cursor backend to be kept when config is unchanged")
	}
}

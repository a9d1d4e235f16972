package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/ipc"
	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/rules"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
	"github.com/scratchd/scratchd/internal/x11"
)

// readOnlyClient wraps the IPC client so nothing is ever dispatched.
type readOnlyClient struct {
	*ipc.Client
}

func (c *readOnlyClient) RunCommand(ctx context.Context, command string) error {
	return nil
}

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "scratchd", "config.yaml")

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	logLevel := flag.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	project := flag.String("project", "", "project to evaluate (defaults to the configured default)")
	flag.Parse()

	logger := util.NewLogger(util.ParseLogLevel(*logLevel))

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("load config: %w", err))
	}

	set, err := rules.Build(cfg.Rules)
	if err != nil {
		exitErr(fmt.Errorf("compile rules: %w", err))
	}

	raw, err := ipc.Dial(3*time.Second, logger)
	if err != nil {
		exitErr(fmt.Errorf("connect: %w", err))
	}
	defer raw.Close()
	client := &readOnlyClient{Client: raw}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	world, err := state.NewWorld(ctx, client)
	if err != nil {
		exitErr(fmt.Errorf("build world: %w", err))
	}

	fmt.Printf("Loaded config from %s\n", *cfgPath)
	fmt.Println("\n=== Configuration ===")
	if err := marshalYAML(cfg); err != nil {
		logger.Warnf("failed to print config: %v", err)
	}

	fmt.Println("\n=== World Snapshot ===")
	if err := marshalJSON(world); err != nil {
		logger.Warnf("failed to print world snapshot: %v", err)
	}

	active := cfg.DefaultProject
	if *project != "" {
		if err := config.ValidateProjectName(*project); err != nil {
			exitErr(fmt.Errorf("project flag: %w", err))
		}
		active = *project
		cfg.DefaultProject = *project
	}

	fmt.Printf("\n=== Window Classification (project %s) ===\n", active)
	for i := range world.Windows {
		printWindow(&world.Windows[i], set)
	}

	locator, cleanup := buildLocator(cfg, logger)
	if cleanup != nil {
		defer cleanup()
	}
	eng, err := engine.New(client, logger, metrics.NewCollector(), locator, cfg)
	if err != nil {
		exitErr(fmt.Errorf("build engine: %w", err))
	}

	plan, err := eng.PreviewReconcile(ctx)
	if err != nil {
		exitErr(fmt.Errorf("preview: %w", err))
	}
	if len(plan) == 0 {
		fmt.Println("\nNo planned commands for current snapshot.")
		return
	}
	fmt.Println("\n=== Planned Commands ===")
	for _, p := range plan {
		fmt.Printf("%s con %d\n", p.Action, p.ConID)
		fmt.Printf("  dispatch: %s\n", p.Command)
	}
}

func printWindow(w *state.Window, set *rules.Set) {
	label := w.EffectiveClass()
	if label == "" {
		label = w.Title
	}
	visibility := "visible"
	if w.Hidden {
		visibility = "hidden"
	}
	fmt.Printf("con %d: %s [%s]\n", w.ID, label, visibility)

	subject := rules.Subject{Class: w.EffectiveClass(), Instance: w.Instance, Title: w.Title}
	if r, ok := set.Match(subject); ok {
		fmt.Printf("  rule: %s %s -> %s (priority %d, %s)\n", r.Type, r.Pattern, r.Scope, r.Priority, r.Source)
	} else {
		fmt.Println("  rule: none -> global")
	}

	m, marked := mark.FromMarks(w.Marks)
	switch {
	case !marked:
		fmt.Println("  mark: none")
	case m.Err != nil:
		fmt.Printf("  mark: %s (state unusable: %v)\n", m.Raw, m.Err)
	case m.State != nil:
		fmt.Printf("  mark: project %s, saved %dx%d at %d,%d\n",
			m.Project, m.State.Width, m.State.Height, m.State.X, m.State.Y)
	default:
		fmt.Printf("  mark: project %s, identity only\n", m.Project)
	}
}

// buildLocator mirrors the daemon's cursor backend selection for realistic
// positioning in the preview.
func buildLocator(cfg *config.Config, logger *util.Logger) (*cursor.Locator, func()) {
	timeout := time.Duration(cfg.Cursor.TimeoutMs) * time.Millisecond
	ttl := time.Duration(cfg.Cursor.CacheTTLMs) * time.Millisecond
	var (
		querier cursor.Querier
		cleanup func()
	)
	switch cfg.Cursor.Backend {
	case "none":
	case "x11":
		if conn, err := x11.Connect(); err == nil {
			querier = conn
			cleanup = func() { conn.Close() }
		} else {
			logger.Warnf("x11 cursor backend unavailable: %v", err)
		}
	case "xdotool":
		querier = cursor.NewXdotoolQuerier()
	default: // auto
		if conn, err := x11.Connect(); err == nil {
			querier = conn
			cleanup = func() { conn.Close() }
		} else {
			logger.Debugf("x11 unavailable, using xdotool for cursor queries: %v", err)
			querier = cursor.NewXdotoolQuerier()
		}
	}
	return cursor.NewLocator(querier, timeout, ttl, logger), cleanup
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func marshalYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func marshalJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

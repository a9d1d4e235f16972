package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/control"
	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/ipc"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/util"
	"github.com/scratchd/scratchd/internal/x11"
)

// wmTimeout bounds every command and query against the window manager.
const wmTimeout = 5 * time.Second

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".config", "scratchd", "config.yaml")

	cfgPath := flag.String("config", defaultConfig, "path to YAML config")
	logLevel := flag.String("log-level", "", "log level override (trace|debug|info|warn|error)")
	ctrlSocket := flag.String("socket", "", "control socket path override")
	flag.Parse()

	cfg, raw, err := loadConfig(*cfgPath)
	if err != nil {
		exitErr(err)
	}
	level := cfg.LogLevel
	levelPinned := *logLevel != ""
	if levelPinned {
		level = *logLevel
	}
	logger := util.NewLogger(util.ParseLogLevel(level))
	if raw == nil {
		logger.Infof("no config at %s, using defaults", *cfgPath)
	}

	cfgFullPath, err := filepath.Abs(*cfgPath)
	if err != nil {
		exitErr(fmt.Errorf("resolve config path: %w", err))
	}
	cfgFullPath = filepath.Clean(cfgFullPath)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		exitErr(fmt.Errorf("watch config: %w", err))
	}
	defer watcher.Close()
	reloadRequests := make(chan string, 1)
	if err := watcher.Add(filepath.Dir(cfgFullPath)); err != nil {
		logger.Warnf("config watch disabled: %v", err)
	} else {
		if err := watcher.Add(cfgFullPath); err != nil {
			logger.Debugf("unable to watch config file directly: %v", err)
		}
		go watchConfig(logger, watcher, cfgFullPath, reloadRequests)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wmSocket, err := ipc.SocketPath()
	if err != nil {
		exitErr(fmt.Errorf("locate window manager socket: %w", err))
	}
	backoff := ipc.Backoff{
		Initial: time.Duration(cfg.Backoff.InitialMs) * time.Millisecond,
		Max:     time.Duration(cfg.Backoff.MaxMs) * time.Millisecond,
		Factor:  cfg.Backoff.Factor,
	}
	session := ipc.NewSession(wmSocket, wmTimeout, backoff, logger)
	events, err := session.Run(ctx)
	if err != nil {
		exitErr(err)
	}

	locator, cursorCloser := buildLocator(cfg, logger)
	collector := metrics.NewCollector()
	eng, err := engine.New(session, logger, collector, locator, cfg)
	if err != nil {
		exitErr(fmt.Errorf("configure engine: %w", err))
	}

	reloader := newConfigReloader(cfgFullPath, logger, eng, cfg, raw, cursorCloser, levelPinned)
	reload := func(reason string) error {
		return reloader.Reload(ctx, reason)
	}

	ctrlSrv, err := control.NewServer(eng, logger, reload, *ctrlSocket)
	if err != nil {
		exitErr(fmt.Errorf("start control server: %w", err))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	errs := make(chan error, 2)
	go func() {
		errs <- eng.Run(ctx, events)
	}()
	go func() {
		errs <- ctrlSrv.Serve(ctx)
	}()

	for {
		select {
		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("daemon exited: %v", err)
				os.Exit(1)
			}
			logger.Infof("daemon stopped")
			return
		case reason := <-reloadRequests:
			if err := reload(reason); err != nil {
				logger.Errorf("reload failed: %v", err)
			}
		case sig := <-sigs:
			switch sig {
			case syscall.SIGHUP:
				if err := reload("received SIGHUP"); err != nil {
					logger.Errorf("reload failed: %v", err)
				}
			case os.Interrupt, syscall.SIGTERM:
				logger.Infof("received %s, shutting down", sig)
				cancel()
			}
		}
	}
}

// loadConfig reads the config file. A missing file selects the defaults so
// the daemon runs without any setup.
func loadConfig(path string) (*config.Config, []byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, raw, nil
}

// buildLocator assembles the pointer backend the configuration asks for. The
// returned closer releases the X11 connection when one was opened.
func buildLocator(cfg *config.Config, logger *util.Logger) (*cursor.Locator, io.Closer) {
	timeout := time.Duration(cfg.Cursor.TimeoutMs) * time.Millisecond
	ttl := time.Duration(cfg.Cursor.CacheTTLMs) * time.Millisecond
	var (
		querier cursor.Querier
		closer  io.Closer
	)
	switch cfg.Cursor.Backend {
	case "none":
	case "x11":
		conn, err := x11.Connect()
		if err != nil {
			logger.Warnf("x11 cursor backend unavailable: %v", err)
		} else {
			querier = conn
			closer = conn
		}
	case "xdotool":
		querier = cursor.NewXdotoolQuerier()
	default: // auto
		if conn, err := x11.Connect(); err == nil {
			querier = conn
			closer = conn
		} else {
			logger.Debugf("x11 unavailable, using xdotool for cursor queries: %v", err)
			querier = cursor.NewXdotoolQuerier()
		}
	}
	return cursor.NewLocator(querier, timeout, ttl, logger), closer
}

func watchConfig(logger *util.Logger, watcher *fsnotify.Watcher, target string, reloadRequests chan<- string) {
	const debounceWindow = 250 * time.Millisecond
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					<-timerCh
				}
				timer.Reset(debounceWindow)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			select {
			case reloadRequests <- "config file updated":
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher error: %v", err)
		}
	}
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

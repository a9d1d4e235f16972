package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/util"
)

// configReloader swaps a validated config into the running engine. A config
// that fails to parse or validate keeps the previous one in effect, with the
// rejected diff logged for the operator.
type configReloader struct {
	path           string
	logger         *util.Logger
	engine         *engine.Engine
	lastConfig     *config.Config
	lastSerialized []byte
	cursorCloser   io.Closer
	levelPinned    bool
}

func newConfigReloader(path string, logger *util.Logger, eng *engine.Engine, cfg *config.Config, serialized []byte, cursorCloser io.Closer, levelPinned bool) *configReloader {
	return &configReloader{
		path:           path,
		logger:         logger,
		engine:         eng,
		lastConfig:     cfg,
		lastSerialized: append([]byte(nil), serialized...),
		cursorCloser:   cursorCloser,
		levelPinned:    levelPinned,
	}
}

func (r *configReloader) Reload(ctx context.Context, reason string) error {
	r.logger.Infof("%s, reloading config", reason)
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		r.logDiff(raw)
		return err
	}
	if err := r.engine.ApplyConfig(cfg); err != nil {
		r.logDiff(raw)
		return fmt.Errorf("apply config: %w", err)
	}
	if !r.levelPinned {
		r.logger.SetLevel(util.ParseLogLevel(cfg.LogLevel))
	}
	if cfg.Cursor != r.lastConfig.Cursor {
		locator, closer := buildLocator(cfg, r.logger)
		r.engine.SetLocator(locator)
		if r.cursorCloser != nil {
			_ = r.cursorCloser.Close()
		}
		r.cursorCloser = closer
		r.logger.Infof("cursor backend reconfigured: %s", cfg.Cursor.Backend)
	}
	if cfg.Backoff != r.lastConfig.Backoff {
		r.logger.Warnf("backoff changes take effect after a restart")
	}

	r.lastConfig = cfg
	r.lastSerialized = append([]byte(nil), raw...)
	r.logger.Infof("config reloaded")

	if _, err := r.engine.Reconcile(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("reconcile after reload: %w", err)
	}
	return nil
}

func (r *configReloader) logDiff(current []byte) {
	diff := config.DiffSerialized(r.lastSerialized, current)
	if diff == "" {
		r.logger.Warnf("config change rejected; unable to compute diff vs last valid config")
		return
	}
	r.logger.Warnf("config change rejected; diff vs last valid config:\n%s", diff)
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultProjectName      = "default"
	defaultCursorBackend    = "auto"
	defaultCursorTimeoutMs  = 150
	defaultCursorCacheTTLMs = 2000
	defaultBackoffInitialMs = 500
	defaultBackoffMaxMs     = 30000
	defaultBackoffFactor    = 2.0
	maxGapPx                = 500
)

// Config is the top-level configuration document.
type Config struct {
	DefaultProject string          `yaml:"defaultProject"`
	LogLevel       string          `yaml:"logLevel"`
	Gaps           Gaps            `yaml:"gaps"`
	Rules          []RuleConfig    `yaml:"rules"`
	Projects       []ProjectConfig `yaml:"projects"`
	Cursor         CursorConfig    `yaml:"cursor"`
	Backoff        BackoffConfig   `yaml:"backoff"`
	Reconcile      ReconcileConfig `yaml:"reconcile"`
}

// Gaps is the minimum pixel margin kept from each workspace edge when
// positioning floating windows.
type Gaps struct {
	Top    int `yaml:"top"`
	Bottom int `yaml:"bottom"`
	Left   int `yaml:"left"`
	Right  int `yaml:"right"`
}

// UnmarshalYAML accepts either a per-edge mapping or a single scalar applied
// to all four edges.
func (g *Gaps) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var all int
		if err := value.Decode(&all); err != nil {
			return fmt.Errorf("gaps: %w", err)
		}
		*g = Gaps{Top: all, Bottom: all, Left: all, Right: all}
		return nil
	}
	type rawGaps struct {
		Top    int `yaml:"top"`
		Bottom int `yaml:"bottom"`
		Left   int `yaml:"left"`
		Right  int `yaml:"right"`
	}
	var raw rawGaps
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*g = Gaps(raw)
	return nil
}

// RuleConfig is one declarative classification rule.
type RuleConfig struct {
	Pattern  string `yaml:"pattern"`
	Type     string `yaml:"type"`
	Scope    string `yaml:"scope"`
	Priority int    `yaml:"priority"`
	Source   string `yaml:"source"`
}

// ProjectConfig declares a project key usable as an active context.
type ProjectConfig struct {
	Name string `yaml:"name"`
}

// CursorConfig tunes the cursor locator.
type CursorConfig struct {
	Backend    string `yaml:"backend"`
	TimeoutMs  int    `yaml:"timeoutMs"`
	CacheTTLMs int    `yaml:"cacheTtlMs"`
}

// BackoffConfig tunes the IPC reconnect schedule.
type BackoffConfig struct {
	InitialMs int     `yaml:"initialMs"`
	MaxMs     int     `yaml:"maxMs"`
	Factor    float64 `yaml:"factor"`
}

// ReconcileConfig tunes the reconciliation sweep.
type ReconcileConfig struct {
	StaggerMs int `yaml:"staggerMs"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults, and validates a configuration payload.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultProject == "" {
		c.DefaultProject = defaultProjectName
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Cursor.Backend == "" {
		c.Cursor.Backend = defaultCursorBackend
	}
	if c.Cursor.TimeoutMs == 0 {
		c.Cursor.TimeoutMs = defaultCursorTimeoutMs
	}
	if c.Cursor.CacheTTLMs == 0 {
		c.Cursor.CacheTTLMs = defaultCursorCacheTTLMs
	}
	if c.Backoff.InitialMs == 0 {
		c.Backoff.InitialMs = defaultBackoffInitialMs
	}
	if c.Backoff.MaxMs == 0 {
		c.Backoff.MaxMs = defaultBackoffMaxMs
	}
	if c.Backoff.Factor == 0 {
		c.Backoff.Factor = defaultBackoffFactor
	}
	for i := range c.Rules {
		if c.Rules[i].Type == "" {
			c.Rules[i].Type = "class"
		}
		if c.Rules[i].Scope == "" {
			c.Rules[i].Scope = "scoped"
		}
		if c.Rules[i].Source == "" {
			c.Rules[i].Source = "user"
		}
	}
}

// Validate performs sanity checks; any failure keeps the previously loaded
// configuration in effect.
func (c *Config) Validate() error {
	if err := ValidateProjectName(c.DefaultProject); err != nil {
		return fmt.Errorf("defaultProject: %w", err)
	}
	if err := c.Gaps.validate(); err != nil {
		return err
	}
	for i, r := range c.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	seen := map[string]struct{}{}
	for _, p := range c.Projects {
		if err := ValidateProjectName(p.Name); err != nil {
			return fmt.Errorf("project: %w", err)
		}
		if _, exists := seen[p.Name]; exists {
			return fmt.Errorf("duplicate project %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	switch c.Cursor.Backend {
	case "auto", "x11", "xdotool", "none":
	default:
		return fmt.Errorf("cursor.backend must be auto, x11, xdotool, or none, got %q", c.Cursor.Backend)
	}
	if c.Cursor.TimeoutMs <= 0 {
		return fmt.Errorf("cursor.timeoutMs must be positive, got %d", c.Cursor.TimeoutMs)
	}
	if c.Cursor.CacheTTLMs <= 0 {
		return fmt.Errorf("cursor.cacheTtlMs must be positive, got %d", c.Cursor.CacheTTLMs)
	}
	if c.Backoff.InitialMs <= 0 {
		return fmt.Errorf("backoff.initialMs must be positive, got %d", c.Backoff.InitialMs)
	}
	if c.Backoff.MaxMs < c.Backoff.InitialMs {
		return fmt.Errorf("backoff.maxMs must be at least initialMs, got %d", c.Backoff.MaxMs)
	}
	if c.Backoff.Factor < 1 {
		return fmt.Errorf("backoff.factor must be at least 1, got %v", c.Backoff.Factor)
	}
	if c.Reconcile.StaggerMs < 0 {
		return fmt.Errorf("reconcile.staggerMs cannot be negative, got %d", c.Reconcile.StaggerMs)
	}
	return nil
}

func (g Gaps) validate() error {
	edges := []struct {
		name  string
		value int
	}{
		{"gaps.top", g.Top},
		{"gaps.bottom", g.Bottom},
		{"gaps.left", g.Left},
		{"gaps.right", g.Right},
	}
	for _, e := range edges {
		if e.value < 0 || e.value > maxGapPx {
			return fmt.Errorf("%s must be between 0 and %d, got %d", e.name, maxGapPx, e.value)
		}
	}
	return nil
}

func (r RuleConfig) validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("pattern cannot be empty")
	}
	if _, err := regexp.Compile(r.Pattern); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", r.Pattern, err)
	}
	switch r.Type {
	case "class", "instance", "title":
	default:
		return fmt.Errorf("type must be class, instance, or title, got %q", r.Type)
	}
	switch r.Scope {
	case "scoped", "global":
	default:
		return fmt.Errorf("scope must be scoped or global, got %q", r.Scope)
	}
	switch r.Source {
	case "system", "user":
	default:
		return fmt.Errorf("source must be system or user, got %q", r.Source)
	}
	return nil
}

// ValidateProjectName rejects names the mark codec cannot carry.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if strings.ContainsAny(name, "|, \t") {
		return fmt.Errorf("project name %q must not contain '|', ',', or whitespace", name)
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/scratchd/scratchd/internal/util"
)

func TestPercentile(t *testing.T) {
	cases := []struct {
		name     string
		values   []time.Duration
		p        float64
		expected time.Duration
	}{
		{
			name:     "empty",
			values:   nil,
			p:        0.5,
			expected: 0,
		},
		{
			name:     "lower bound",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond},
			p:        -0.1,
			expected: time.Millisecond,
		},
		{
			name:     "upper bound",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond},
			p:        1.2,
			expected: 2 * time.Millisecond,
		},
		{
			name:     "median",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
			p:        0.5,
			expected: 2 * time.Millisecond,
		},
		{
			name:     "p95",
			values:   []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond},
			p:        0.95,
			expected: 5 * time.Millisecond,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := percentile(tc.values, tc.p); got != tc.expected {
				t.Fatalf("percentile(%s, %f) = %s, want %s", tc.name, tc.p, got, tc.expected)
			}
		})
	}
}

func TestSwitchesPerSecond(t *testing.T) {
	cases := []struct {
		name     string
		total    time.Duration
		switches int
		expected float64
	}{
		{name: "zero duration", total: 0, switches: 10, expected: 0},
		{name: "zero switches", total: time.Second, switches: 0, expected: 0},
		{name: "positive", total: 10 * time.Millisecond, switches: 4, expected: 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := switchesPerSecond(tc.total, tc.switches)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Fatalf("switchesPerSecond(%s) = %f, want %f", tc.name, got, tc.expected)
			}
		})
	}
}

func TestSafeDivide(t *testing.T) {
	cases := []struct {
		total    int
		count    int
		expected float64
	}{
		{total: 10, count: 2, expected: 5},
		{total: 0, count: 10, expected: 0},
		{total: 10, count: 0, expected: 0},
	}

	for _, tc := range cases {
		got := safeDivide(tc.total, tc.count)
		if math.Abs(got-tc.expected) > 1e-9 {
			t.Fatalf("safeDivide(%d, %d) = %f, want %f", tc.total, tc.count, got, tc.expected)
		}
	}
}

func TestPrintHumanSummary(t *testing.T) {
	summary := benchSummary{
		Fixture:              "test",
		Windows:              7,
		Iterations:           2,
		WarmupIterations:     1,
		SwitchesPerIteration: 3,
		TotalSwitches:        6,
		Dispatches: benchDispatchStats{
			Total:        12,
			PerIteration: 6,
			PerSwitch:    2,
		},
		Latency: benchLatencyStats{
			Min:    1.0,
			Mean:   2.0,
			Median: 1.5,
			P95:    3.5,
			Max:    4.0,
		},
		IterationDuration: benchLatencyStats{
			Min:    10.0,
			Mean:   12.5,
			Median: 15.0,
			P95:    18.0,
			Max:    20.0,
		},
		Allocations: benchAllocationStats{
			Total:                120,
			PerSwitch:            20,
			BytesTotal:           4096,
			BytesPerSwitch:       512,
			HeapAllocDelta:       1024,
			HeapObjectsDelta:     12,
			HeapObjectsPerSwitch: 2,
		},
		SwitchesPerSecond: 300,
	}

	var buf bytes.Buffer
	if err := printHumanSummary(summary, &buf); err != nil {
		t.Fatalf("printHumanSummary returned error: %v", err)
	}

	output := buf.String()
	checks := []string{
		"Fixture:                  test",
		"Windows:                  7",
		"Dispatches:               12 (6.00 / iter, 2.00 / switch)",
		"Switch latency (ms):      min 1.00 | mean 2.00 | median 1.50 | p95 3.50 | max 4.00",
		"Iteration duration (ms):  min 10.00 | mean 12.50 | median 15.00 | p95 18.00 | max 20.00",
		"Allocations:              120 total (20.00 / switch)",
		"Heap delta:               1024 B (0.00 MiB) change, 12 objects (2.00 / switch)",
		"Switches/sec:             300.00",
	}
	for _, c := range checks {
		if !strings.Contains(output, c) {
			t.Fatalf("expected summary to contain %q, got:\n%s", c, output)
		}
	}
}

func TestFormatBytesSigned(t *testing.T) {
	if got := formatBytesSigned(0); got != "0 B (0.00 MiB)" {
		t.Fatalf("formatBytesSigned(0) = %q", got)
	}
	if got := formatBytesSigned(1024); got != "1024 B (0.00 MiB)" {
		t.Fatalf("formatBytesSigned(1024) = %q", got)
	}
	if got := formatBytesSigned(-2048); got != "-2048 B (0.00 MiB)" {
		t.Fatalf("formatBytesSigned(-2048) = %q", got)
	}
}

func TestBuildReport(t *testing.T) {
	fixture := benchFixture{
		Name:    "test",
		Windows: []benchWindow{{Class: "kitty", Project: "dev"}, {Class: "mpv"}},
		Cycle:   []string{"web", "dev"},
	}
	durations := []time.Duration{
		time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
	}
	start := runtime.MemStats{Mallocs: 1000, TotalAlloc: 4096, HeapAlloc: 2048, HeapObjects: 200}
	end := runtime.MemStats{Mallocs: 1500, TotalAlloc: 8192, HeapAlloc: 3072, HeapObjects: 260}
	iterationDurations := []time.Duration{10 * time.Millisecond, 12 * time.Millisecond}
	iterationDispatches := []int{5, 3}

	report := buildReport(fixture, 2, 1, durations, iterationDurations, iterationDispatches, 8, start, end)
	summary := report.Summary

	if summary.Fixture != "test" || summary.Windows != 2 {
		t.Fatalf("unexpected fixture identity: %+v", summary)
	}
	if summary.SwitchesPerIteration != 2 || summary.TotalSwitches != 4 {
		t.Fatalf("switch counts = %d/%d, want 2/4", summary.SwitchesPerIteration, summary.TotalSwitches)
	}
	if summary.WarmupIterations != 1 {
		t.Fatalf("WarmupIterations = %d, want 1", summary.WarmupIterations)
	}
	if summary.Dispatches.Total != 8 {
		t.Fatalf("Dispatches.Total = %d, want 8", summary.Dispatches.Total)
	}
	if math.Abs(summary.Dispatches.PerIteration-4) > 1e-9 {
		t.Fatalf("Dispatches.PerIteration = %f, want 4", summary.Dispatches.PerIteration)
	}
	if math.Abs(summary.Dispatches.PerSwitch-2) > 1e-9 {
		t.Fatalf("Dispatches.PerSwitch = %f, want 2", summary.Dispatches.PerSwitch)
	}
	if math.Abs(summary.Allocations.PerSwitch-125) > 1e-9 {
		t.Fatalf("Allocations.PerSwitch = %f, want 125", summary.Allocations.PerSwitch)
	}
	if math.Abs(summary.Allocations.BytesPerSwitch-1024) > 1e-9 {
		t.Fatalf("Allocations.BytesPerSwitch = %f, want 1024", summary.Allocations.BytesPerSwitch)
	}
	if math.Abs(summary.SwitchesPerSecond-400) > 1e-6 {
		t.Fatalf("SwitchesPerSecond = %f, want 400", summary.SwitchesPerSecond)
	}
	if summary.Allocations.HeapAllocDelta != 1024 {
		t.Fatalf("Allocations.HeapAllocDelta = %d, want 1024", summary.Allocations.HeapAllocDelta)
	}
	if math.Abs(summary.Allocations.HeapAllocPerSwitch-256) > 1e-9 {
		t.Fatalf("Allocations.HeapAllocPerSwitch = %f, want 256", summary.Allocations.HeapAllocPerSwitch)
	}
	if summary.Allocations.HeapObjectsDelta != 60 {
		t.Fatalf("Allocations.HeapObjectsDelta = %d, want 60", summary.Allocations.HeapObjectsDelta)
	}
	if math.Abs(summary.Allocations.HeapObjectsPerSwitch-15) > 1e-9 {
		t.Fatalf("Allocations.HeapObjectsPerSwitch = %f, want 15", summary.Allocations.HeapObjectsPerSwitch)
	}
	if math.Abs(summary.Latency.Median-3) > 1e-9 || math.Abs(summary.Latency.P95-4) > 1e-9 {
		t.Fatalf("latency median/p95 = %f/%f, want 3/4", summary.Latency.Median, summary.Latency.P95)
	}
	if math.Abs(summary.IterationDuration.Mean-11) > 1e-9 {
		t.Fatalf("IterationDuration.Mean = %f, want 11", summary.IterationDuration.Mean)
	}
	if summary.IterationDuration.Min != 10 {
		t.Fatalf("IterationDuration.Min = %f, want 10", summary.IterationDuration.Min)
	}
	if summary.IterationDuration.Max != 12 {
		t.Fatalf("IterationDuration.Max = %f, want 12", summary.IterationDuration.Max)
	}
	if len(report.DurationsMs) != 4 {
		t.Fatalf("expected 4 recorded durations, got %d", len(report.DurationsMs))
	}
	if len(report.Iterations) != 2 {
		t.Fatalf("expected 2 iteration entries, got %d", len(report.Iterations))
	}
	iter := report.Iterations[0]
	if iter.Index != 1 || iter.Dispatches != 5 || iter.Switches != 2 {
		t.Fatalf("unexpected first iteration summary: %+v", iter)
	}
	if math.Abs(iter.DurationMs-10) > 1e-9 {
		t.Fatalf("expected first iteration duration 10ms, got %f", iter.DurationMs)
	}
}

func TestLoadFixtureJSONFallsBackToBase(t *testing.T) {
	base := defaultFixture()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	payload := `{
  "name": "custom"
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fixture, err := loadFixture(path, base)
	if err != nil {
		t.Fatalf("loadFixture returned error: %v", err)
	}
	if fixture.Name != "custom" {
		t.Fatalf("expected name custom, got %q", fixture.Name)
	}
	if len(fixture.Windows) != len(base.Windows) {
		t.Fatalf("expected %d windows, got %d", len(base.Windows), len(fixture.Windows))
	}
	if len(fixture.Cycle) != len(base.Cycle) {
		t.Fatalf("expected %d cycle entries, got %d", len(base.Cycle), len(fixture.Cycle))
	}
}

func TestLoadFixtureJSONDefaultsNameToFile(t *testing.T) {
	base := defaultFixture()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	payload := `{
  "windows": [
    {"class": "kitty", "project": "dev", "hidden": true, "floating": true, "saved": true}
  ],
  "cycle": ["dev"]
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fixture, err := loadFixture(path, base)
	if err != nil {
		t.Fatalf("loadFixture returned error: %v", err)
	}
	if fixture.Name != "fixture.json" {
		t.Fatalf("expected name fixture.json, got %q", fixture.Name)
	}
	if len(fixture.Windows) != 1 || fixture.Windows[0].Class != "kitty" {
		t.Fatalf("unexpected windows: %+v", fixture.Windows)
	}
	if len(fixture.Cycle) != 1 || fixture.Cycle[0] != "dev" {
		t.Fatalf("unexpected cycle: %+v", fixture.Cycle)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	_, err := loadFixture(filepath.Join(t.TempDir(), "absent.json"), defaultFixture())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestScaleFixture(t *testing.T) {
	fixture := benchFixture{
		Name: "small",
		Windows: []benchWindow{
			{Class: "kitty", Project: "dev", Hidden: true, Floating: true, Saved: true},
			{Class: "mpv"},
		},
		Cycle: []string{"dev"},
	}

	scaled := scaleFixture(fixture, 3)
	if len(scaled.Windows) != 6 {
		t.Fatalf("expected 6 windows, got %d", len(scaled.Windows))
	}
	if scaled.Windows[0].Class != "kitty" || scaled.Windows[1].Class != "mpv" {
		t.Fatalf("original windows not preserved: %+v", scaled.Windows[:2])
	}
	if scaled.Windows[2].Class != "kitty-1" || scaled.Windows[4].Class != "kitty-2" {
		t.Fatalf("unexpected clone classes: %+v", scaled.Windows)
	}
	if scaled.Windows[2].Project != "dev" || !scaled.Windows[2].Hidden {
		t.Fatalf("clone lost window attributes: %+v", scaled.Windows[2])
	}
	if len(scaled.Cycle) != 1 {
		t.Fatalf("cycle should be unchanged, got %+v", scaled.Cycle)
	}
}

func TestResolveConfigSynthesizesRules(t *testing.T) {
	fixture := defaultFixture()

	cfg, err := resolveConfig("", fixture)
	if err != nil {
		t.Fatalf("resolveConfig returned error: %v", err)
	}
	if len(cfg.Rules) != 6 {
		t.Fatalf("expected 6 synthesized rules, got %d", len(cfg.Rules))
	}
	patterns := map[string]bool{}
	for _, r := range cfg.Rules {
		if r.Type != "class" || r.Scope != "scoped" || r.Source != "user" {
			t.Fatalf("unexpected rule shape: %+v", r)
		}
		patterns[r.Pattern] = true
	}
	if !patterns["^kitty$"] {
		t.Fatalf("expected anchored kitty rule, got %v", patterns)
	}
	if patterns["^mpv$"] {
		t.Fatal("unmarked window should not get a rule")
	}
}

func TestResolveConfigRejectsBadCycleName(t *testing.T) {
	fixture := defaultFixture()
	fixture.Cycle = []string{"bad|name"}

	if _, err := resolveConfig("", fixture); err == nil || !strings.Contains(err.Error(), "fixture cycle") {
		t.Fatalf("expected cycle validation error, got %v", err)
	}
}

func TestReplayIterationCountsDispatches(t *testing.T) {
	fixture := defaultFixture()
	cfg, err := resolveConfig("", fixture)
	if err != nil {
		t.Fatalf("resolveConfig returned error: %v", err)
	}
	logger := util.NewLogger(util.ParseLogLevel("error"))
	ctx := context.Background()

	duration, dispatches, switchDurations, err := replayIteration(ctx, fixture, cfg, logger, true)
	if err != nil {
		t.Fatalf("replayIteration returned error: %v", err)
	}
	if duration <= 0 {
		t.Fatalf("expected positive iteration duration, got %s", duration)
	}
	if dispatches == 0 {
		t.Fatal("expected the sweep cycle to dispatch commands")
	}
	if len(switchDurations) != len(fixture.Cycle) {
		t.Fatalf("expected %d switch durations, got %d", len(fixture.Cycle), len(switchDurations))
	}

	_, again, warmupDurations, err := replayIteration(ctx, fixture, cfg, logger, false)
	if err != nil {
		t.Fatalf("second replayIteration returned error: %v", err)
	}
	if again != dispatches {
		t.Fatalf("replay not deterministic: %d then %d dispatches", dispatches, again)
	}
	if warmupDurations != nil {
		t.Fatalf("warmup pass should not capture durations, got %d", len(warmupDurations))
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/scratchd/scratchd/internal/config"
	"github.com/scratchd/scratchd/internal/cursor"
	"github.com/scratchd/scratchd/internal/engine"
	"github.com/scratchd/scratchd/internal/layout"
	"github.com/scratchd/scratchd/internal/mark"
	"github.com/scratchd/scratchd/internal/metrics"
	"github.com/scratchd/scratchd/internal/state"
	"github.com/scratchd/scratchd/internal/util"
)

// benchFixture describes a synthetic window population and the project
// switch cycle replayed against it.
type benchFixture struct {
	Name    string        `json:"name"`
	Windows []benchWindow `json:"windows"`
	Cycle   []string      `json:"cycle"`
}

type benchWindow struct {
	Class    string `json:"class"`
	Project  string `json:"project"`
	Hidden   bool   `json:"hidden"`
	Floating bool   `json:"floating"`
	Saved    bool   `json:"saved"`
}

type benchLatencyStats struct {
	Min    float64 `json:"minMs"`
	Mean   float64 `json:"meanMs"`
	Median float64 `json:"medianMs"`
	P95    float64 `json:"p95Ms"`
	Max    float64 `json:"maxMs"`
}

type benchAllocationStats struct {
	Total                uint64  `json:"totalAllocations"`
	PerSwitch            float64 `json:"allocationsPerSwitch"`
	BytesTotal           uint64  `json:"bytesTotal"`
	BytesPerSwitch       float64 `json:"bytesPerSwitch"`
	MiBTotal             float64 `json:"miBTotal"`
	MiBPerSwitch         float64 `json:"miBPerSwitch"`
	HeapAllocStart       uint64  `json:"heapAllocStartBytes"`
	HeapAllocEnd         uint64  `json:"heapAllocEndBytes"`
	HeapAllocDelta       int64   `json:"heapAllocDeltaBytes"`
	HeapAllocPerSwitch   float64 `json:"heapAllocDeltaPerSwitch"`
	HeapObjectsStart     uint64  `json:"heapObjectsStart"`
	HeapObjectsEnd       uint64  `json:"heapObjectsEnd"`
	HeapObjectsDelta     int64   `json:"heapObjectsDelta"`
	HeapObjectsPerSwitch float64 `json:"heapObjectsPerSwitch"`
}

type benchDispatchStats struct {
	Total        int     `json:"total"`
	PerIteration float64 `json:"perIteration"`
	PerSwitch    float64 `json:"perSwitch"`
}

type benchSummary struct {
	Fixture              string               `json:"fixture"`
	Windows              int                  `json:"windows"`
	Iterations           int                  `json:"iterations"`
	SwitchesPerIteration int                  `json:"switchesPerIteration"`
	TotalSwitches        int                  `json:"totalSwitches"`
	WarmupIterations     int                  `json:"warmupIterations"`
	Dispatches           benchDispatchStats   `json:"dispatches"`
	Latency              benchLatencyStats    `json:"latency"`
	IterationDuration    benchLatencyStats    `json:"iterationDuration"`
	Allocations          benchAllocationStats `json:"allocations"`
	TotalDurationMs      float64              `json:"totalDurationMs"`
	SwitchesPerSecond    float64              `json:"switchesPerSecond"`
}

type benchReport struct {
	Summary     benchSummary     `json:"summary"`
	DurationsMs []float64        `json:"durationsMs"`
	Iterations  []benchIteration `json:"iterations,omitempty"`
}

type benchIteration struct {
	Index      int     `json:"index"`
	DurationMs float64 `json:"durationMs"`
	Dispatches int     `json:"dispatches"`
	Switches   int     `json:"switches"`
}

// benchWM serves a static snapshot and counts dispatched commands without
// applying them, so every iteration replays identical work.
type benchWM struct {
	mu         sync.Mutex
	tree       *state.Node
	workspaces []state.Workspace
	outputs    []state.Output
	dispatched int
}

func (b *benchWM) GetTree(context.Context) (*state.Node, error) {
	return b.tree, nil
}

func (b *benchWM) GetWorkspaces(context.Context) ([]state.Workspace, error) {
	return b.workspaces, nil
}

func (b *benchWM) GetOutputs(context.Context) ([]state.Output, error) {
	return b.outputs, nil
}

func (b *benchWM) GetMarks(context.Context) ([]string, error) {
	var marks []string
	for _, w := range b.tree.Windows() {
		marks = append(marks, w.Marks...)
	}
	return marks, nil
}

func (b *benchWM) RunCommand(context.Context, string) error {
	b.mu.Lock()
	b.dispatched++
	b.mu.Unlock()
	return nil
}

func (b *benchWM) Dispatches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dispatched
}

func main() {
	defaultFixturePath := filepath.Join("fixtures", "projects.json")

	cfgPath := flag.String("config", "", "path to YAML config (default: synthesized from the fixture)")
	fixturePath := flag.String("fixture", defaultFixturePath, "path to JSON fixture")
	scale := flag.Int("scale", 1, "replicate the fixture windows this many times")
	iterations := flag.Int("iterations", 10, "number of times to replay the switch cycle")
	warmup := flag.Int("warmup", 0, "number of warm-up iterations to run before timing")
	cpuProfile := flag.String("cpu-profile", "", "write CPU profile to file")
	memProfile := flag.String("mem-profile", "", "write heap profile to file")
	logLevel := flag.String("log-level", "warn", "log level (trace|debug|info|warn|error)")
	outputPath := flag.String("output", "-", "write JSON report to file ('-' for stdout)")
	humanSummary := flag.Bool("human", false, "print a tabular summary alongside the JSON output")
	flag.Parse()

	if *iterations <= 0 {
		fmt.Fprintln(os.Stderr, "iterations must be positive")
		os.Exit(1)
	}
	if *warmup < 0 {
		fmt.Fprintln(os.Stderr, "warmup must be zero or positive")
		os.Exit(1)
	}
	if *scale < 1 {
		fmt.Fprintln(os.Stderr, "scale must be at least 1")
		os.Exit(1)
	}

	logger := util.NewLogger(util.ParseLogLevel(*logLevel))

	fixture := defaultFixture()
	if *fixturePath != "" {
		loaded, loadErr := loadFixture(*fixturePath, fixture)
		if loadErr != nil {
			if errors.Is(loadErr, fs.ErrNotExist) && *fixturePath == defaultFixturePath {
				logger.Warnf("fixture %s not found, using built-in synthetic world", *fixturePath)
			} else {
				exitErr(fmt.Errorf("load fixture: %w", loadErr))
			}
		} else {
			fixture = loaded
		}
	}
	if len(fixture.Cycle) == 0 {
		exitErr(errors.New("fixture declares no project switches"))
	}
	if *scale > 1 {
		fixture = scaleFixture(fixture, *scale)
	}

	cfg, err := resolveConfig(*cfgPath, fixture)
	if err != nil {
		exitErr(err)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			exitErr(fmt.Errorf("create cpu profile: %w", err))
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			exitErr(fmt.Errorf("start cpu profile: %w", err))
		}
		defer pprof.StopCPUProfile()
	}

	ctx := context.Background()

	for i := 0; i < *warmup; i++ {
		if _, _, _, err := replayIteration(ctx, fixture, cfg, logger, false); err != nil {
			exitErr(fmt.Errorf("warmup iteration %d: %w", i+1, err))
		}
	}

	runtime.GC()
	var startMem runtime.MemStats
	runtime.ReadMemStats(&startMem)

	switchesPerIteration := len(fixture.Cycle)
	durations := make([]time.Duration, 0, switchesPerIteration*(*iterations))
	iterationDurations := make([]time.Duration, 0, *iterations)
	iterationDispatches := make([]int, 0, *iterations)
	totalDispatches := 0

	for i := 0; i < *iterations; i++ {
		iterationDuration, dispatchCount, switchDurations, err := replayIteration(ctx, fixture, cfg, logger, true)
		if err != nil {
			exitErr(fmt.Errorf("iteration %d: %w", i+1, err))
		}
		iterationDurations = append(iterationDurations, iterationDuration)
		iterationDispatches = append(iterationDispatches, dispatchCount)
		totalDispatches += dispatchCount
		durations = append(durations, switchDurations...)
	}

	runtime.GC()
	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			exitErr(fmt.Errorf("create mem profile: %w", err))
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			exitErr(fmt.Errorf("write heap profile: %w", err))
		}
	}

	report := buildReport(fixture, *iterations, *warmup, durations, iterationDurations, iterationDispatches, totalDispatches, startMem, endMem)
	if err := writeReport(report, *outputPath); err != nil {
		exitErr(fmt.Errorf("encode report: %w", err))
	}

	if *humanSummary {
		if err := printHumanSummary(report.Summary, os.Stdout); err != nil {
			exitErr(fmt.Errorf("print human summary: %w", err))
		}
	}
}

// replayIteration builds a fresh engine over the fixture world, runs the
// initial sweep, then times every project switch in the cycle.
func replayIteration(ctx context.Context, fixture benchFixture, cfg *config.Config, logger *util.Logger, capture bool) (time.Duration, int, []time.Duration, error) {
	wm := fixture.newWM()
	locator := cursor.NewLocator(nil, 0, 0, logger)
	eng, err := engine.New(wm, logger, metrics.NewCollector(), locator, cfg)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("build engine: %w", err)
	}

	iterationStart := time.Now()
	if _, err := eng.Reconcile(ctx); err != nil {
		return 0, 0, nil, fmt.Errorf("initial sweep: %w", err)
	}

	var switchDurations []time.Duration
	if capture {
		switchDurations = make([]time.Duration, 0, len(fixture.Cycle))
	}
	for _, project := range fixture.Cycle {
		start := time.Now()
		if _, err := eng.SetProject(ctx, project); err != nil {
			return 0, 0, nil, fmt.Errorf("switch to %s: %w", project, err)
		}
		if capture {
			switchDurations = append(switchDurations, time.Since(start))
		}
	}

	return time.Since(iterationStart), wm.Dispatches(), switchDurations, nil
}

// resolveConfig loads the config file when one is given, otherwise
// synthesizes scoped rules covering every marked fixture class.
func resolveConfig(path string, fixture benchFixture) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg := config.Default()
	seen := map[string]bool{}
	for _, w := range fixture.Windows {
		if w.Project == "" || seen[w.Class] {
			continue
		}
		seen[w.Class] = true
		cfg.Rules = append(cfg.Rules, config.RuleConfig{
			Pattern: "^" + regexp.QuoteMeta(w.Class) + "$",
			Type:    "class",
			Scope:   "scoped",
			Source:  "user",
		})
	}
	for _, p := range fixture.Cycle {
		if err := config.ValidateProjectName(p); err != nil {
			return nil, fmt.Errorf("fixture cycle: %w", err)
		}
	}
	return cfg, nil
}

// newWM assembles an i3-shaped tree: visible windows on workspace 1, hidden
// ones as floating containers on the scratchpad workspace.
func (f benchFixture) newWM() *benchWM {
	screen := layout.Rect{Width: 2560, Height: 1440}
	ws := &state.Node{ID: 3, Type: "workspace", Name: "1", Num: 1, Rect: screen}
	scratch := &state.Node{ID: 5, Type: "workspace", Name: state.ScratchpadWorkspace, Num: -1}

	nextID := int64(10)
	for _, w := range f.Windows {
		node := &state.Node{
			ID:   nextID,
			Type: "con",
			Rect: layout.Rect{X: 100, Y: 100, Width: 800, Height: 600},
			WindowProperties: &state.WindowProperties{
				Class:    w.Class,
				Instance: w.Class,
			},
		}
		nextID++
		if w.Project != "" {
			node.Marks = []string{encodeMark(w)}
		}
		switch {
		case w.Hidden:
			node.Type = "floating_con"
			scratch.FloatingNodes = append(scratch.FloatingNodes, node)
		case w.Floating:
			node.Type = "floating_con"
			ws.FloatingNodes = append(ws.FloatingNodes, node)
		default:
			ws.Nodes = append(ws.Nodes, node)
		}
	}

	root := &state.Node{
		ID:   1,
		Type: "root",
		Nodes: []*state.Node{
			{ID: 2, Type: "output", Name: "DP-1", Nodes: []*state.Node{ws}},
			{ID: 4, Type: "output", Name: "__i3", Nodes: []*state.Node{scratch}},
		},
	}
	return &benchWM{
		tree: root,
		workspaces: []state.Workspace{{
			Num: 1, Name: "1", Focused: true, Visible: true, Output: "DP-1", Rect: screen,
		}},
		outputs: []state.Output{{
			Name: "DP-1", Active: true, Primary: true, CurrentWorkspace: "1", Rect: screen,
		}},
	}
}

func encodeMark(w benchWindow) string {
	if !w.Saved {
		return mark.Identity(w.Project)
	}
	return mark.Mark{
		Project: w.Project,
		State: &mark.State{
			Floating:  w.Floating || w.Hidden,
			X:         200,
			Y:         150,
			Width:     800,
			Height:    600,
			SavedAt:   1730934000,
			Workspace: 1,
			Monitor:   "DP-1",
		},
	}.Encode()
}

// scaleFixture replicates the window population n times with distinct
// classes so the synthesized rule set grows with the world.
func scaleFixture(fixture benchFixture, n int) benchFixture {
	scaled := fixture
	scaled.Windows = make([]benchWindow, 0, len(fixture.Windows)*n)
	scaled.Windows = append(scaled.Windows, fixture.Windows...)
	for i := 1; i < n; i++ {
		for _, w := range fixture.Windows {
			clone := w
			clone.Class = w.Class + "-" + strconv.Itoa(i)
			scaled.Windows = append(scaled.Windows, clone)
		}
	}
	return scaled
}

func buildReport(fixture benchFixture, iterations, warmup int, durations, iterationDurations []time.Duration, iterationDispatches []int, dispatches int, start, end runtime.MemStats) benchReport {
	totalSwitches := len(fixture.Cycle) * iterations
	latencyStats, totalSwitchDuration := buildLatencyStats(durations)
	iterationStats, _ := buildLatencyStats(iterationDurations)

	allocs := end.Mallocs - start.Mallocs
	allocsPerSwitch := float64(allocs)
	if totalSwitches > 0 {
		allocsPerSwitch = float64(allocs) / float64(totalSwitches)
	}
	bytesAllocated := end.TotalAlloc - start.TotalAlloc
	bytesPerSwitch := float64(bytesAllocated)
	if totalSwitches > 0 {
		bytesPerSwitch = float64(bytesAllocated) / float64(totalSwitches)
	}

	heapAllocDelta := int64(end.HeapAlloc) - int64(start.HeapAlloc)
	heapAllocPerSwitch := float64(heapAllocDelta)
	if totalSwitches > 0 {
		heapAllocPerSwitch = float64(heapAllocDelta) / float64(totalSwitches)
	}
	heapObjectsDelta := int64(end.HeapObjects) - int64(start.HeapObjects)
	heapObjectsPerSwitch := float64(heapObjectsDelta)
	if totalSwitches > 0 {
		heapObjectsPerSwitch = float64(heapObjectsDelta) / float64(totalSwitches)
	}

	durationsMs := make([]float64, len(durations))
	for i, d := range durations {
		durationsMs[i] = toMillis(d)
	}

	iterationsData := make([]benchIteration, 0, len(iterationDurations))
	for i, d := range iterationDurations {
		dispatchCount := 0
		if i < len(iterationDispatches) {
			dispatchCount = iterationDispatches[i]
		}
		iterationsData = append(iterationsData, benchIteration{
			Index:      i + 1,
			DurationMs: toMillis(d),
			Dispatches: dispatchCount,
			Switches:   len(fixture.Cycle),
		})
	}

	summary := benchSummary{
		Fixture:              fixture.Name,
		Windows:              len(fixture.Windows),
		Iterations:           iterations,
		WarmupIterations:     warmup,
		SwitchesPerIteration: len(fixture.Cycle),
		TotalSwitches:        totalSwitches,
		Dispatches: benchDispatchStats{
			Total:        dispatches,
			PerIteration: safeDivide(dispatches, iterations),
			PerSwitch:    safeDivide(dispatches, totalSwitches),
		},
		Latency:           latencyStats,
		IterationDuration: iterationStats,
		Allocations: benchAllocationStats{
			Total:                allocs,
			PerSwitch:            allocsPerSwitch,
			BytesTotal:           bytesAllocated,
			BytesPerSwitch:       bytesPerSwitch,
			MiBTotal:             float64(bytesAllocated) / (1024 * 1024),
			MiBPerSwitch:         bytesPerSwitch / (1024 * 1024),
			HeapAllocStart:       start.HeapAlloc,
			HeapAllocEnd:         end.HeapAlloc,
			HeapAllocDelta:       heapAllocDelta,
			HeapAllocPerSwitch:   heapAllocPerSwitch,
			HeapObjectsStart:     start.HeapObjects,
			HeapObjectsEnd:       end.HeapObjects,
			HeapObjectsDelta:     heapObjectsDelta,
			HeapObjectsPerSwitch: heapObjectsPerSwitch,
		},
		TotalDurationMs:   toMillis(totalSwitchDuration),
		SwitchesPerSecond: switchesPerSecond(totalSwitchDuration, totalSwitches),
	}

	return benchReport{Summary: summary, DurationsMs: durationsMs, Iterations: iterationsData}
}

func buildLatencyStats(durations []time.Duration) (benchLatencyStats, time.Duration) {
	stats := benchLatencyStats{}
	if len(durations) == 0 {
		return stats, 0
	}
	total := time.Duration(0)
	for _, d := range durations {
		total += d
	}
	mean := total / time.Duration(len(durations))
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	stats.Min = toMillis(sorted[0])
	stats.Mean = toMillis(mean)
	stats.Median = toMillis(percentile(sorted, 0.50))
	stats.P95 = toMillis(percentile(sorted, 0.95))
	stats.Max = toMillis(sorted[len(sorted)-1])
	return stats, total
}

func safeDivide(total int, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func writeReport(report benchReport, outputPath string) error {
	var (
		w   io.Writer
		out *os.File
		err error
	)
	switch strings.TrimSpace(outputPath) {
	case "", "-":
		w = os.Stdout
	default:
		dir := filepath.Dir(outputPath)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create report dir: %w", err)
			}
		}
		out, err = os.Create(outputPath)
		if err != nil {
			return err
		}
		defer out.Close()
		w = out
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printHumanSummary(summary benchSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Fixture:\t%s\n", summary.Fixture); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Windows:\t%d\n", summary.Windows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Iterations:\t%d\n", summary.Iterations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Warmup iterations:\t%d\n", summary.WarmupIterations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Switches/iteration:\t%d\n", summary.SwitchesPerIteration); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Total switches:\t%d\n", summary.TotalSwitches); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Dispatches:\t%d (%.2f / iter, %.2f / switch)\n", summary.Dispatches.Total, summary.Dispatches.PerIteration, summary.Dispatches.PerSwitch); err != nil {
		return err
	}
	latency := summary.Latency
	if _, err := fmt.Fprintf(tw, "Switch latency (ms):\tmin %.2f | mean %.2f | median %.2f | p95 %.2f | max %.2f\n", latency.Min, latency.Mean, latency.Median, latency.P95, latency.Max); err != nil {
		return err
	}
	iterationLatency := summary.IterationDuration
	if _, err := fmt.Fprintf(tw, "Iteration duration (ms):\tmin %.2f | mean %.2f | median %.2f | p95 %.2f | max %.2f\n", iterationLatency.Min, iterationLatency.Mean, iterationLatency.Median, iterationLatency.P95, iterationLatency.Max); err != nil {
		return err
	}
	allocs := summary.Allocations
	if _, err := fmt.Fprintf(tw, "Allocations:\t%d total (%.2f / switch)\n", allocs.Total, allocs.PerSwitch); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Bytes allocated:\t%s (%.2f / switch)\n", formatBytesUnsigned(allocs.BytesTotal), allocs.BytesPerSwitch); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Heap delta:\t%s change, %d objects (%.2f / switch)\n", formatBytesSigned(allocs.HeapAllocDelta), allocs.HeapObjectsDelta, allocs.HeapObjectsPerSwitch); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "Switches/sec:\t%.2f\n", summary.SwitchesPerSecond); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return nil
}

func formatBytesUnsigned(bytes uint64) string {
	const miB = 1024 * 1024
	if bytes == 0 {
		return "0 B (0.00 MiB)"
	}
	return fmt.Sprintf("%d B (%.2f MiB)", bytes, float64(bytes)/float64(miB))
}

func formatBytesSigned(delta int64) string {
	if delta == 0 {
		return "0 B (0.00 MiB)"
	}
	sign := ""
	if delta < 0 {
		sign = "-"
		delta = -delta
	}
	return fmt.Sprintf("%s%s", sign, formatBytesUnsigned(uint64(delta)))
}

func switchesPerSecond(total time.Duration, switches int) float64 {
	if total <= 0 || switches == 0 {
		return 0
	}
	seconds := total.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(switches) / seconds
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func loadFixture(path string, base benchFixture) (benchFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return benchFixture{}, err
	}
	var fixture benchFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return benchFixture{}, err
	}
	if fixture.Name == "" {
		fixture.Name = filepath.Base(path)
	}
	if len(fixture.Windows) == 0 {
		fixture.Windows = append([]benchWindow(nil), base.Windows...)
	}
	if len(fixture.Cycle) == 0 {
		fixture.Cycle = append([]string(nil), base.Cycle...)
	}
	return fixture, nil
}

func defaultFixture() benchFixture {
	return benchFixture{
		Name: "synthetic-projects",
		Windows: []benchWindow{
			{Class: "kitty", Project: "dev", Hidden: true, Floating: true, Saved: true},
			{Class: "code", Project: "dev", Floating: true, Saved: true},
			{Class: "firefox", Project: "web", Hidden: true, Floating: true, Saved: true},
			{Class: "slack", Project: "web"},
			{Class: "btop", Project: "nix", Hidden: true, Floating: true, Saved: true},
			{Class: "obsidian", Project: "nix", Floating: true},
			{Class: "mpv"},
		},
		Cycle: []string{"web", "nix", "dev"},
	}
}

func exitErr(err error) {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintf(os.Stderr, "error: %v\n", pathErr)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

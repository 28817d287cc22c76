package game

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/sphfluid/config"
	"github.com/pthm-cable/sphfluid/sph"
	"github.com/pthm-cable/sphfluid/telemetry"
)

// useSmallScene installs a config with a few dozen particles.
func useSmallScene(t *testing.T) {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Scene.MaxParticles = 64
	cfg.Scene.WallMin = []float64{-10, 0, -10}
	cfg.Scene.WallMax = []float64{10, 20, 10}
	cfg.Scene.FluidMin = []float64{-2, 1, -2}
	cfg.Scene.FluidMax = []float64{2, 4, 2}
	if err := cfg.Refresh(); err != nil {
		t.Fatal(err)
	}
	config.Set(cfg)
}

func newHeadless(t *testing.T, opts Options) *Game {
	t.Helper()
	opts.Headless = true
	opts.Logger = slog.New(slog.DiscardHandler)
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func TestHeadless_FlushesWindows(t *testing.T) {
	useSmallScene(t)

	var windows []telemetry.WindowStats
	g := newHeadless(t, Options{
		StatsWindowSec: 0.03, // 10 ticks at dt 0.003
		StepsPerUpdate: 5,
		StatsCallback:  func(s telemetry.WindowStats) { windows = append(windows, s) },
	})

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}

	if g.Tick() != 50 {
		t.Fatalf("tick = %d, want 50", g.Tick())
	}
	if len(windows) != 5 {
		t.Fatalf("got %d windows, want 5", len(windows))
	}
	for i, w := range windows {
		if want := int32(10 * (i + 1)); w.WindowEndTick != want {
			t.Errorf("window %d ends at %d, want %d", i, w.WindowEndTick, want)
		}
		if w.Particles != g.Solver().ParticleCount() {
			t.Errorf("window %d particles = %d, want %d", i, w.Particles, g.Solver().ParticleCount())
		}
		if w.DensityMean <= 0 {
			t.Errorf("window %d density mean = %v", i, w.DensityMean)
		}
	}
	if g.LastStats() == nil || g.LastStats().WindowEndTick != 50 {
		t.Errorf("LastStats = %+v, want window ending at 50", g.LastStats())
	}
}

func TestHeadless_NoWindowsWhenDisabled(t *testing.T) {
	useSmallScene(t)

	called := false
	g := newHeadless(t, Options{
		StepsPerUpdate: 20,
		StatsCallback:  func(telemetry.WindowStats) { called = true },
	})
	g.UpdateHeadless()

	if called {
		t.Error("stats callback ran with windows disabled")
	}
	if g.Tick() != 20 {
		t.Errorf("tick = %d, want 20", g.Tick())
	}
}

func TestHeadless_OutputDir(t *testing.T) {
	useSmallScene(t)
	dir := t.TempDir()

	g := newHeadless(t, Options{
		StatsWindowSec: 0.03,
		StepsPerUpdate: 10,
		OutputDir:      dir,
	})
	for i := 0; i < 3; i++ {
		g.UpdateHeadless()
	}
	g.SaveSnapshot()
	g.Unload()

	for _, name := range []string{"telemetry.csv", "perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("telemetry.csv is empty")
	}

	if _, err := os.Stat(filepath.Join(dir, "snapshots", "snapshot_30.json")); err != nil {
		t.Errorf("missing snapshot: %v", err)
	}
}

func TestReset(t *testing.T) {
	useSmallScene(t)

	fresh := newHeadless(t, Options{})
	g := newHeadless(t, Options{StepsPerUpdate: 15})
	g.UpdateHeadless()

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if g.Tick() != 0 {
		t.Errorf("tick after reset = %d", g.Tick())
	}

	a, b := g.Solver().Positions(), fresh.Solver().Positions()
	if a.Len() != b.Len() {
		t.Fatalf("particle count %d after reset, want %d", a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("particle %d at %v after reset, want %v", i, a.At(i), b.At(i))
		}
	}
}

func TestReset_ClearsBookmarkState(t *testing.T) {
	useSmallScene(t)

	g := newHeadless(t, Options{StatsWindowSec: 0.03})
	g.bookmarkDetector.Check(telemetry.WindowStats{WindowEndTick: 10, OutOfGrid: 3})

	if err := g.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	got := g.bookmarkDetector.Check(telemetry.WindowStats{WindowEndTick: 10, OutOfGrid: 2})
	var escaped bool
	for _, bm := range got {
		escaped = escaped || bm.Type == telemetry.BookmarkEscape
	}
	if !escaped {
		t.Error("escape in the first window after Reset was suppressed")
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	useSmallScene(t)

	g := newHeadless(t, Options{StepsPerUpdate: 20})
	g.UpdateHeadless()

	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(g.Solver(), g.Tick(), nil), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	restored := newHeadless(t, Options{StepsPerUpdate: 5, RestorePath: path})
	if restored.Tick() != 20 {
		t.Fatalf("restored tick = %d, want 20", restored.Tick())
	}

	g.SetStepsPerUpdate(5)
	g.UpdateHeadless()
	restored.UpdateHeadless()

	a, b := g.Solver().Positions(), restored.Solver().Positions()
	for i := 0; i < a.Len(); i++ {
		if a.At(i) != b.At(i) {
			t.Fatalf("particle %d diverged: %v vs %v", i, a.At(i), b.At(i))
		}
	}
}

func TestRestoreWithIntegratorOverride(t *testing.T) {
	useSmallScene(t)

	g := newHeadless(t, Options{StepsPerUpdate: 10})
	g.UpdateHeadless()
	if got := g.Solver().Params().Integrator; got != sph.IntegratorEuler {
		t.Fatalf("configured integrator = %q, want %q", got, sph.IntegratorEuler)
	}

	path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(g.Solver(), g.Tick(), nil), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	restored := newHeadless(t, Options{RestorePath: path, Integrator: sph.IntegratorLeapFrog})
	if got := restored.Solver().Params().Integrator; got != sph.IntegratorLeapFrog {
		t.Errorf("restored integrator = %q, want override %q", got, sph.IntegratorLeapFrog)
	}
	if restored.Tick() != 10 {
		t.Errorf("restored tick = %d, want 10", restored.Tick())
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	useSmallScene(t)

	_, err := NewGameWithOptions(Options{
		Headless:    true,
		RestorePath: filepath.Join(t.TempDir(), "missing.json"),
		Logger:      slog.New(slog.DiscardHandler),
	})
	if err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestSetStepsPerUpdate(t *testing.T) {
	useSmallScene(t)
	g := newHeadless(t, Options{})

	if g.StepsPerUpdate() != 1 {
		t.Errorf("default steps = %d, want 1", g.StepsPerUpdate())
	}
	g.SetStepsPerUpdate(0)
	if g.StepsPerUpdate() != 1 {
		t.Errorf("steps = %d after SetStepsPerUpdate(0), want 1", g.StepsPerUpdate())
	}
	g.SetStepsPerUpdate(1000)
	if g.StepsPerUpdate() != 20 {
		t.Errorf("steps = %d after SetStepsPerUpdate(1000), want 20", g.StepsPerUpdate())
	}
}

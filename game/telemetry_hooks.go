package game

import (
	"github.com/pthm-cable/sphfluid/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	g.sample.Sample(g.solver)
	stats := g.collector.Flush(g.tick, &g.sample)
	perfStats := g.perfCollector.Stats()
	g.lastStats = &stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			g.logger.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			g.logger.Error("failed to write perf", "error", err)
		}
	}

	bookmarks := g.bookmarkDetector.Check(stats)
	for _, bm := range bookmarks {
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				g.logger.Error("failed to write bookmark", "error", err)
			}
		}

		g.saveSnapshot(&bm)
	}
}

// saveSnapshot writes the current state next to the output files, or to the
// snapshot directory when no output directory is set.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.outputManager == nil && g.snapshotDir == "" {
		return
	}

	snapshot := telemetry.NewSnapshot(g.solver, g.tick, bookmark)

	var (
		path string
		err  error
	)
	if g.outputManager != nil {
		path, err = g.outputManager.WriteSnapshot(snapshot)
	} else {
		path, err = telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	}
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}

	g.logger.Info("snapshot saved", "path", path, "tick", g.tick)
}

// SaveSnapshot writes an unbookmarked snapshot of the current state.
func (g *Game) SaveSnapshot() {
	g.saveSnapshot(nil)
}

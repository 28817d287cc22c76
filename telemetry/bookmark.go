package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkEscape          BookmarkType = "escape"
	BookmarkTruncationSpike BookmarkType = "truncation_spike"
	BookmarkCompression     BookmarkType = "compression"
	BookmarkSettled         BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	restDensity float64

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	lastOutOfGrid      int
	compressed         bool // last window was over the compression threshold
	stableWindowsCount int  // consecutive windows with steady density and speed
	settledReported    bool
}

// compressionRatio is the density, relative to rest, that counts as a
// compression event.
const compressionRatio = 1.5

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, restDensity float64) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settle detection
	}
	return &BookmarkDetector{
		restDensity: restDensity,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Reset forgets all history and edge state, as for a fresh run.
func (bd *BookmarkDetector) Reset() {
	clear(bd.history)
	bd.historyIdx = 0
	bd.historyFull = false
	bd.lastOutOfGrid = 0
	bd.compressed = false
	bd.stableWindowsCount = 0
	bd.settledReported = false
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	// Escape: particles left the grid after a window without any
	if b := bd.checkEscape(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	// Compression: peak density crossed the threshold
	if b := bd.checkCompression(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Truncation spike: capped neighbor lists > 2x rolling average
		if b := bd.checkTruncationSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Settled: steady density and speed over 5 windows
		if b := bd.checkSettled(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	bd.lastOutOfGrid = stats.OutOfGrid

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	ordered := make([]WindowStats, 0, bd.historySize)
	ordered = append(ordered, bd.history[bd.historyIdx:]...)
	return append(ordered, bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkEscape(stats WindowStats) *Bookmark {
	if stats.OutOfGrid == 0 || bd.lastOutOfGrid > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkEscape,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles left the grid, max overshoot %.2f", stats.OutOfGrid, stats.MaxOvershoot),
	}
}

func (bd *BookmarkDetector) checkCompression(stats WindowStats) *Bookmark {
	if bd.restDensity <= 0 {
		return nil
	}
	over := stats.DensityMax > bd.restDensity*compressionRatio
	wasOver := bd.compressed
	bd.compressed = over
	if !over || wasOver {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCompression,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Peak density %.0f is %.2fx rest density", stats.DensityMax, stats.DensityMax/bd.restDensity),
	}
}

func (bd *BookmarkDetector) checkTruncationSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Truncated
	}
	avg := float64(total) / float64(len(history))

	if stats.Truncated >= 10 && float64(stats.Truncated) > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkTruncationSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d capped neighbor lists vs average %.1f", stats.Truncated, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if bd.settledReported || stats.Particles == 0 {
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	densities := make([]float64, 0, len(recent)+1)
	speeds := make([]float64, 0, len(recent)+1)
	for _, h := range recent {
		densities = append(densities, h.DensityMean)
		speeds = append(speeds, h.SpeedMean)
	}
	densities = append(densities, stats.DensityMean)
	speeds = append(speeds, stats.SpeedMean)

	if coefficientOfVariation(densities) < 0.01 && coefficientOfVariation(speeds) < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		bd.settledReported = true
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Fluid settled at density %.0f, mean speed %.3f m/s", stats.DensityMean, stats.SpeedMean),
		}
	}
	return nil
}

// coefficientOfVariation returns the population std over the mean, or
// +Inf when the mean is zero and the values are not.
func coefficientOfVariation(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		if std == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return std / math.Abs(mean)
}

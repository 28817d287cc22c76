package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Particle count at window end
	Particles int `csv:"particles"`

	// Density distribution (sampled at window end)
	DensityMean  float64 `csv:"density_mean"`
	DensityStd   float64 `csv:"density_std"`
	DensityMin   float64 `csv:"density_min"`
	DensityP50   float64 `csv:"density_p50"`
	DensityMax   float64 `csv:"density_max"`
	DensityError float64 `csv:"density_error"` // Mean |rho - rho0| / rho0

	PressureMean float64 `csv:"pressure_mean"`

	// Speeds in m/s
	SpeedMean float64 `csv:"speed_mean"`
	SpeedMax  float64 `csv:"speed_max"`

	// Neighbor search, accumulated over every tick of the window
	NeighborsMean float64 `csv:"neighbors_mean"` // Per particle per tick
	Truncated     int     `csv:"truncated"`      // Worst tick: lists that hit the cap
	OutOfGrid     int     `csv:"out_of_grid"`    // Worst tick: particles outside the grid

	// Containment
	MaxOvershoot float64 `csv:"max_overshoot"` // World units outside the wall box
}

// Distribution summarises a sample.
type Distribution struct {
	Mean float64
	Std  float64
	Min  float64
	P50  float64
	Max  float64
}

// ComputeDistribution calculates mean, standard deviation, median and range.
// An empty sample yields the zero Distribution.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var d Distribution
	if n > 1 {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	} else {
		d.Mean = sorted[0]
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.P50 = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	return d
}

// RelativeError returns the mean of |v - target| / target.
func RelativeError(values []float64, target float64) float64 {
	if len(values) == 0 || target == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Abs(v - target)
	}
	return sum / float64(len(values)) / math.Abs(target)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_min", s.DensityMin),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("density_error", s.DensityError),
		slog.Float64("pressure_mean", s.PressureMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("neighbors_mean", s.NeighborsMean),
		slog.Int("truncated", s.Truncated),
		slog.Int("out_of_grid", s.OutOfGrid),
		slog.Float64("max_overshoot", s.MaxOvershoot),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"particles", s.Particles,
		"density_mean", s.DensityMean,
		"density_std", s.DensityStd,
		"density_min", s.DensityMin,
		"density_p50", s.DensityP50,
		"density_max", s.DensityMax,
		"density_error", s.DensityError,
		"pressure_mean", s.PressureMean,
		"speed_mean", s.SpeedMean,
		"speed_max", s.SpeedMax,
		"neighbors_mean", s.NeighborsMean,
		"truncated", s.Truncated,
		"out_of_grid", s.OutOfGrid,
		"max_overshoot", s.MaxOvershoot,
	)
}

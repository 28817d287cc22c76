package telemetry

import (
	"math"
	"testing"
)

func TestComputeDistribution(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		want    Distribution
		checkSD bool
	}{
		{"empty", []float64{}, Distribution{}, true},
		{"single", []float64{5}, Distribution{Mean: 5, Min: 5, P50: 5, Max: 5}, true},
		{"constant", []float64{2, 2, 2, 2}, Distribution{Mean: 2, Min: 2, P50: 2, Max: 2}, true},
		{"unsorted", []float64{9, 1, 5}, Distribution{Mean: 5, Min: 1, Max: 9}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDistribution(tt.values)
			if math.Abs(got.Mean-tt.want.Mean) > 1e-9 {
				t.Errorf("mean = %v, want %v", got.Mean, tt.want.Mean)
			}
			if got.Min != tt.want.Min || got.Max != tt.want.Max {
				t.Errorf("range = [%v, %v], want [%v, %v]", got.Min, got.Max, tt.want.Min, tt.want.Max)
			}
			if tt.checkSD {
				if got.Std != tt.want.Std {
					t.Errorf("std = %v, want %v", got.Std, tt.want.Std)
				}
				if got.P50 != tt.want.P50 {
					t.Errorf("p50 = %v, want %v", got.P50, tt.want.P50)
				}
			}
			if got.P50 < got.Min || got.P50 > got.Max {
				t.Errorf("p50 %v outside [%v, %v]", got.P50, got.Min, got.Max)
			}
		})
	}
}

func TestComputeDistribution_Spread(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	d := ComputeDistribution(values)

	if math.Abs(d.Mean-0.55) > 1e-9 {
		t.Errorf("mean = %v, want 0.55", d.Mean)
	}
	// Sample standard deviation of 0.1..1.0.
	if math.Abs(d.Std-0.30277) > 1e-4 {
		t.Errorf("std = %v, want ~0.30277", d.Std)
	}
	if math.Abs(d.P50-0.55) > 0.051 {
		t.Errorf("p50 = %v, want ~0.5", d.P50)
	}
	// Input is left untouched.
	if values[0] != 0.1 || values[9] != 1.0 {
		t.Error("ComputeDistribution modified its input")
	}
}

func TestRelativeError(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		target float64
		want   float64
	}{
		{"empty", nil, 1000, 0},
		{"zero target", []float64{1, 2}, 0, 0},
		{"exact", []float64{1000, 1000}, 1000, 0},
		{"symmetric", []float64{900, 1100}, 1000, 0.1},
		{"one sided", []float64{1200, 1200, 1000, 1000}, 1000, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeError(tt.values, tt.target); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("RelativeError = %v, want %v", got, tt.want)
			}
		})
	}
}

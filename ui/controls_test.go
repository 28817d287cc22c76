package ui

import "testing"

func TestClampSteps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{7, 7},
		{MaxStepsPerUpdate, MaxStepsPerUpdate},
		{MaxStepsPerUpdate + 1, MaxStepsPerUpdate},
	}
	for _, tc := range tests {
		if got := ClampSteps(tc.in); got != tc.want {
			t.Errorf("ClampSteps(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// Package testutil provides shared test infrastructure for the fleet
// simulator: scripted random draws and float assertion helpers used across
// sim/ test packages.
package testutil

import (
	"math"
	"testing"
)

// ScriptedSampler replays a fixed list of draws, then repeats Then forever.
// It satisfies the fleet Sampler interface.
type ScriptedSampler struct {
	Draws []float64
	Then  float64
	n     int
}

// NewScriptedSampler creates a sampler that returns draws in order and then
// repeats then.
func NewScriptedSampler(then float64, draws ...float64) *ScriptedSampler {
	return &ScriptedSampler{Draws: draws, Then: then}
}

// Rand returns the next scripted draw.
func (s *ScriptedSampler) Rand() float64 {
	if s.n < len(s.Draws) {
		v := s.Draws[s.n]
		s.n++
		return v
	}
	s.n++
	return s.Then
}

// Calls returns how many draws have been taken.
func (s *ScriptedSampler) Calls() int {
	return s.n
}

// Const is a sampler that always returns the same value.
type Const float64

// Rand returns c.
func (c Const) Rand() float64 {
	return float64(c)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

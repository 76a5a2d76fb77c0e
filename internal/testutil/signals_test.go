package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestHarmonicMatchesSine(t *testing.T) {
	a := Harmonic(440, 44100, []float64{0.5}, 256)
	b := DeterministicSine(440, 44100, 0.5, 256)
	RequireSliceNearlyEqual(t, a, b, 1e-12)

	c := Harmonic(440, 44100, []float64{0.5, 0.25}, 256)
	if MaxAbsDiffMust(t, a, c) == 0 {
		t.Fatal("second harmonic had no effect")
	}
}

func TestDeterministicNoise(t *testing.T) {
	a := DeterministicNoise(7, 0.5, 64)
	b := DeterministicNoise(7, 0.5, 64)
	RequireSliceNearlyEqual(t, a, b, 0)

	for i, v := range a {
		if math.Abs(v) > 0.5 {
			t.Fatalf("noise[%d] = %v exceeds amplitude", i, v)
		}
	}

	c := DeterministicNoise(8, 0.5, 64)
	if MaxAbsDiffMust(t, a, c) == 0 {
		t.Fatal("different seeds produced identical noise")
	}
}

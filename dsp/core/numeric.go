package core

import "math"

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// FreqToNote converts a frequency in Hz to a fractional MIDI note number
// (A4 = 440 Hz = note 69).
func FreqToNote(freq float64) float64 {
	return 69 + 12*math.Log2(freq/440)
}

// NoteToFreq converts a (possibly fractional) MIDI note number to Hz.
func NoteToFreq(note float64) float64 {
	return 440 * math.Exp2((note-69)/12)
}

// SemitonesToRatio converts a pitch offset in semitones to a frequency ratio.
func SemitonesToRatio(semitones float64) float64 {
	return math.Exp2(semitones / 12)
}

// NormalizePhase wraps a phase measured in cycles into [0, 1).
// Inputs are expected to be > -1.
func NormalizePhase(phase float64) float64 {
	p := math.Mod(phase+1, 1)
	if p < 0 {
		p += 1
	}

	return p
}

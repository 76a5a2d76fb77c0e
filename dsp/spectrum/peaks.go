package spectrum

import (
	"math"
	"sort"
)

// Peak is one spectral maximum located with sub-bin precision.
type Peak struct {
	// Bin is the fractional bin position of the maximum.
	Bin float64
	// Magnitude is the interpolated linear magnitude at Bin.
	Magnitude float64
	// Index is the integer bin the peak was found at.
	Index int
}

// FindPeaks returns local maxima of mag that exceed threshold (linear),
// strongest first, at most maxPeaks of them (0 means no limit). Peak
// positions are refined by fitting a parabola through the log magnitudes of
// the maximum and its two neighbours.
func FindPeaks(mag []float64, threshold float64, maxPeaks int) []Peak {
	var peaks []Peak

	for k := 1; k+1 < len(mag); k++ {
		m := mag[k]
		if m <= threshold || m < mag[k-1] || m <= mag[k+1] {
			continue
		}

		peaks = append(peaks, refine(mag, k))
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	if maxPeaks > 0 && len(peaks) > maxPeaks {
		peaks = peaks[:maxPeaks]
	}

	return peaks
}

func refine(mag []float64, k int) Peak {
	const floor = 1e-30

	a := math.Log(math.Max(mag[k-1], floor))
	b := math.Log(math.Max(mag[k], floor))
	c := math.Log(math.Max(mag[k+1], floor))

	den := a - 2*b + c
	if den == 0 {
		return Peak{Bin: float64(k), Magnitude: mag[k], Index: k}
	}

	offset := 0.5 * (a - c) / den
	offset = math.Max(-0.5, math.Min(0.5, offset))
	logMag := b - 0.25*(a-c)*offset

	return Peak{Bin: float64(k) + offset, Magnitude: math.Exp(logMag), Index: k}
}

// BandAverages splits values into len(dst) equally wide bands and writes the
// mean of each band into dst. Bands that cover no value are set to zero.
func BandAverages(dst, values []float64) {
	bands := len(dst)
	if bands == 0 {
		return
	}

	n := len(values)
	for b := range bands {
		lo := b * n / bands
		hi := (b + 1) * n / bands

		if hi <= lo {
			dst[b] = 0
			continue
		}

		sum := 0.0
		for _, v := range values[lo:hi] {
			sum += v
		}
		dst[b] = sum / float64(hi-lo)
	}
}

// BandOf returns the band index bin k belongs to when bins values are
// split into bands equally wide bands, consistent with BandAverages.
func BandOf(k, bins, bands int) int {
	if bins <= 0 || bands <= 0 {
		return 0
	}

	b := min(k*bands/bins, bands-1)
	for b > 0 && b*bins/bands > k {
		b--
	}
	for b+1 < bands && (b+1)*bins/bands <= k {
		b++
	}

	return b
}

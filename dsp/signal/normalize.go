package signal

import (
	"fmt"

	"github.com/XieJiSS/spectmorph/dsp/core"
)

// Normalize scales data in place so its peak equals targetPeak and returns
// the applied gain. Silent input is left unchanged with gain 0.
func Normalize(data []float64, targetPeak float64) (float64, error) {
	if targetPeak < 0 {
		return 0, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}

	peak := core.MaxAbs(data)
	if peak == 0 {
		return 0, nil
	}

	gain := targetPeak / peak
	for i := range data {
		data[i] *= gain
	}

	return gain, nil
}

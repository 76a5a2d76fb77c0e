package dynamics

import (
	"fmt"
	"math"

	"github.com/XieJiSS/spectmorph/dsp/core"
)

const (
	defaultLimiterThresholdDB = -0.3
	defaultLimiterReleaseMs   = 100.0
	defaultLimiterLookaheadMs = 3.0

	minLimiterThresholdDB = -24.0
	maxLimiterThresholdDB = 0.0
	minLimiterReleaseMs   = 1.0
	maxLimiterReleaseMs   = 5000.0
	maxLimiterLookaheadMs = 200.0
)

// Limiter is a lookahead peak limiter. The program path is delayed by the
// lookahead while the detector sees the undelayed input, so the gain is
// already reduced when a peak reaches the output.
//
// The gain never exceeds the smallest gain target of the samples still in
// the delay line; it drops to that minimum at once and releases towards it
// exponentially.
type Limiter struct {
	sampleRate  float64
	thresholdDB float64
	releaseMs   float64
	lookaheadMs float64

	threshold    float64
	releaseCoeff float64

	gain     float64
	delayBuf []float64
	writePos int

	// Sliding minimum of the gain targets in the delay line: a ring of
	// (sample index, target) pairs with increasing targets.
	minIdx  []int
	minVal  []float64
	minHead int
	minLen  int
	n       int
}

// NewLimiter creates a limiter with a -0.3 dB ceiling, 100 ms release and
// 3 ms lookahead.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("limiter sample rate must be positive and finite: %f", sampleRate)
	}

	l := &Limiter{sampleRate: sampleRate, gain: 1}
	if err := l.SetThreshold(defaultLimiterThresholdDB); err != nil {
		return nil, err
	}
	if err := l.SetRelease(defaultLimiterReleaseMs); err != nil {
		return nil, err
	}
	if err := l.SetLookahead(defaultLimiterLookaheadMs); err != nil {
		return nil, err
	}

	return l, nil
}

// SetThreshold sets the output ceiling in dB.
func (l *Limiter) SetThreshold(dB float64) error {
	if dB < minLimiterThresholdDB || dB > maxLimiterThresholdDB || math.IsNaN(dB) {
		return fmt.Errorf("limiter threshold must be in [%g, %g]: %f", minLimiterThresholdDB, maxLimiterThresholdDB, dB)
	}

	l.thresholdDB = dB
	l.threshold = core.DBToLinear(dB)

	return nil
}

// SetRelease sets the time for the gain to recover by 1/e, in ms.
func (l *Limiter) SetRelease(ms float64) error {
	if ms < minLimiterReleaseMs || ms > maxLimiterReleaseMs || math.IsNaN(ms) {
		return fmt.Errorf("limiter release must be in [%g, %g]: %f", minLimiterReleaseMs, maxLimiterReleaseMs, ms)
	}

	l.releaseMs = ms
	l.releaseCoeff = math.Exp(-1000 / (ms * l.sampleRate))

	return nil
}

// SetLookahead sets the program delay in ms and resets the limiter.
func (l *Limiter) SetLookahead(ms float64) error {
	if ms < 0 || ms > maxLimiterLookaheadMs || math.IsNaN(ms) {
		return fmt.Errorf("limiter lookahead must be in [0, %g]: %f", maxLimiterLookaheadMs, ms)
	}

	size := int(math.Round(ms*l.sampleRate/1000)) + 1

	l.lookaheadMs = ms
	l.delayBuf = make([]float64, size)
	l.minIdx = make([]int, size)
	l.minVal = make([]float64, size)
	l.Reset()

	return nil
}

// Threshold returns the ceiling in dB.
func (l *Limiter) Threshold() float64 { return l.thresholdDB }

// Release returns the release time in ms.
func (l *Limiter) Release() float64 { return l.releaseMs }

// Lookahead returns the program delay in ms.
func (l *Limiter) Lookahead() float64 { return l.lookaheadMs }

// Latency returns the program delay in samples.
func (l *Limiter) Latency() int { return len(l.delayBuf) - 1 }

// GainReductionDB returns the current gain reduction as a positive dB value.
func (l *Limiter) GainReductionDB() float64 { return -core.LinearToDB(l.gain) }

// Reset clears the delay line and restores unity gain.
func (l *Limiter) Reset() {
	clear(l.delayBuf)
	l.writePos = 0
	l.gain = 1
	l.minHead = 0
	l.minLen = 0
	l.n = 0
}

// ProcessSample limits one sample.
func (l *Limiter) ProcessSample(x float64) float64 {
	target := 1.0
	if a := math.Abs(x); a > l.threshold {
		target = l.threshold / a
	}

	floor := l.windowMin(target)
	if floor < l.gain {
		l.gain = floor
	} else {
		l.gain = floor + (l.gain-floor)*l.releaseCoeff
	}

	l.delayBuf[l.writePos] = x
	l.writePos++
	if l.writePos == len(l.delayBuf) {
		l.writePos = 0
	}

	return l.delayBuf[l.writePos] * l.gain
}

// windowMin adds target for the current input and returns the smallest
// target among the inputs still in the delay line.
func (l *Limiter) windowMin(target float64) float64 {
	size := len(l.minIdx)

	for l.minLen > 0 && l.minIdx[l.minHead] <= l.n-size {
		l.minHead = (l.minHead + 1) % size
		l.minLen--
	}

	for l.minLen > 0 && l.minVal[(l.minHead+l.minLen-1)%size] >= target {
		l.minLen--
	}

	tail := (l.minHead + l.minLen) % size
	l.minIdx[tail] = l.n
	l.minVal[tail] = target
	l.minLen++
	l.n++

	return l.minVal[l.minHead]
}

// ProcessInPlace limits buf in place.
func (l *Limiter) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = l.ProcessSample(x)
	}
}

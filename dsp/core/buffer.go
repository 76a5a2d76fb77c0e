package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ShiftLeft moves buf[n:] to the front of buf and zeroes the n freed tail
// values. It is the advance step of an overlap-add shift register.
func ShiftLeft(buf []float64, n int) {
	if n <= 0 {
		return
	}
	if n >= len(buf) {
		Zero(buf)
		return
	}
	copy(buf, buf[n:])
	Zero(buf[len(buf)-n:])
}

// MaxAbs returns the largest absolute value in buf.
func MaxAbs(buf []float64) float64 {
	peak := 0.0
	for _, v := range buf {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Package spectrum provides spectrum-domain helpers used by sinusoidal
// analysis: magnitude/phase extraction, peak picking and band averaging.
//
// The package does not implement an FFT. It operates on complex bins produced
// by an external transform (algo-fft in this module).
package spectrum

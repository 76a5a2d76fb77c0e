// Package instrument describes sampled instruments and turns them into
// spectral models.
//
// An Instrument is a list of Samples, each a recording of one MIDI note
// with optional clip and loop markers. A Builder analyses every sample
// into a wavset.Audio (sinusoidal partials plus a banded noise envelope
// per frame) and bundles the results into an immutable wavset.WavSet.
package instrument

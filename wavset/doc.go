// Package wavset holds the spectral data model consumed by the decoders:
// Audio models made of analysis Blocks, grouped into a WavSet that binds
// note, channel and velocity ranges to each model.
//
// Values in this package are immutable once published. A WavSet snapshot
// is replaced by pointer assignment; decoders that still reference an older
// snapshot keep it alive until they drop it.
package wavset

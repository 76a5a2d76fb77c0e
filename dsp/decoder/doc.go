// Package decoder resynthesizes audio from spectral frames.
//
// SineDecoder and NoiseDecoder turn one frame into one windowed block.
// LiveDecoder drives them per voice: it selects the spectral model on
// retrigger, advances frames every frame step, keeps partial phases
// continuous across frames and overlap-adds the decoded blocks into a shift
// register that is read one sample at a time.
//
// None of the types here are safe for concurrent use. Each voice owns its
// decoders exclusively; only the spectral data they read is shared.
package decoder

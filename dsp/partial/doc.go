// Package partial tracks sinusoidal partials across analysis frames so that
// resynthesized frames continue the phase of the previous frame.
//
// Matching uses a relative tolerance of ±5%: a partial at f_new continues a
// previous partial at f_prev when f_prev*0.95 < f_new < f_prev*1.05. Among
// all candidates the one with the smallest absolute frequency difference
// wins.
package partial

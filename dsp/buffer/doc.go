// Package buffer provides the overlap-add shift register used for frame
// based resynthesis.
package buffer

// Package dither quantises float audio to integer PCM for file output.
package dither

import (
	"fmt"
	"strings"
)

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without added noise.
	None Type = iota
	// Rectangular adds uniform noise of one LSB peak.
	Rectangular
	// Triangular adds TPDF noise, the sum of two uniform draws.
	Triangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rectangular", "triangular"}

// String returns the flag name of the type.
func (t Type) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// ParseType returns the type named s. "tpdf" is accepted for Triangular.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "tpdf" {
		return Triangular, nil
	}

	for i, name := range typeNames {
		if s == name {
			return Type(i), nil
		}
	}

	return None, fmt.Errorf("dither: unknown type %q", s)
}

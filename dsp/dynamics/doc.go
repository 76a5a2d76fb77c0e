// Package dynamics provides the output limiter of the command line tools.
package dynamics

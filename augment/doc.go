// Package augment implements the stochastic image transforms used to
// preprocess tracker training pairs.
//
// Every operator is a pure function of a caller-owned random source and its
// inputs: it never mutates the image it is given and keeps no state between
// calls. When an operator's random gate does not fire, the input is handed
// back as is, so callers must not assume the result is a fresh copy.
//
// Operators that move pixels return their side-channel values (stretch
// scale, crop origin and padding, mixup coefficients) alongside the image so
// that box and label coordinates can be kept in step.
//
// A *rand.Rand is not safe for concurrent use. Give each goroutine its own,
// or let Runner derive them.
package augment

// Package design maps musical parameters (frequency, gain, Q) to biquad
// coefficients for the console EQ.
//
// The shapes are the RBJ audio-EQ-cookbook bilinear-transform designs.
// Every designer is a pure function: the same inputs yield bit-identical
// coefficients. Inputs that cannot be designed (frequency outside
// (0, Nyquist), non-finite values, non-positive sample rate) yield
// [biquad.Identity] rather than non-finite coefficients, and a non-positive
// Q is replaced by 1/sqrt(2).
//
// console.go holds the console-specific choices built on top of the
// cookbook shapes: the cascaded high-pass Q pair and the Black-mode
// dynamic Q.
package design

// Package tone measures the gain and phase of sinusoidal components.
//
// [FitTones] performs a least-squares fit of sines at known frequencies
// plus a DC term and reports the residual, which is how the EQ's
// steady-state response and transparency are verified. [Goertzel] evaluates
// a single DFT bin, used for alias and harmonic levels.
package tone

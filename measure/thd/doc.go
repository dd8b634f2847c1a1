// Package thd measures harmonic distortion of a steady sine, used to
// characterize the saturation stage.
package thd

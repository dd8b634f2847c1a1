// Package plugin adapts the equalizer engine to a host: float32 buffers,
// a thread-safe parameter store, state save/restore and an output meter.
//
// The host thread owns a FourK processor and calls ProcessBlock. Any other
// goroutine may change parameters through Params() and read Meter().
package plugin

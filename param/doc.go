// Package param is a lock-free parameter store keyed by string identifier.
//
// The set of parameters is fixed when the [Store] is created; afterwards
// each value is an atomically updated float64, so the audio thread can read
// while a UI or host thread writes. Booleans are stored as 0/1 and choices
// as their index. The full value set can be exported and restored as a
// versioned JSON document.
package param

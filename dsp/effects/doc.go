// Package effects provides the console saturation stage.
package effects

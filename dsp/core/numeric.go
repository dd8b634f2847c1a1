package core

import (
	"math"

	approx "github.com/meko-christian/algo-approx"
)

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// ClampFinite clamps value to [min, max] and maps NaN to fallback.
// Infinities clamp to the nearest bound.
func ClampFinite(value, min, max, fallback float64) float64 {
	if math.IsNaN(value) {
		return fallback
	}

	return Clamp(value, min, max)
}

// IsFinite reports whether x is neither NaN nor an infinity.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// FastLinearToDB is an approximate LinearToDB for meter readouts.
// Values at or below floorDB (including zero) return floorDB.
func FastLinearToDB(linear, floorDB float64) float64 {
	if !(linear > 0) {
		return floorDB
	}

	db := 20 / math.Ln10 * approx.FastLog(linear)
	if db < floorDB {
		return floorDB
	}

	return db
}

package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, expected: 0.5},
		{name: "below", value: -1, min: 0, max: 1, expected: 0},
		{name: "above", value: 2, min: 0, max: 1, expected: 1},
		{name: "swapped", value: 2, min: 1, max: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.min, tt.max)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClampFinite(t *testing.T) {
	if got := ClampFinite(math.NaN(), 20, 500, 20); got != 20 {
		t.Fatalf("NaN: got %v, want fallback 20", got)
	}
	if got := ClampFinite(math.Inf(1), 20, 500, 20); got != 500 {
		t.Fatalf("+Inf: got %v, want 500", got)
	}
	if got := ClampFinite(math.Inf(-1), 20, 500, 100); got != 20 {
		t.Fatalf("-Inf: got %v, want 20", got)
	}
}

func TestIsFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if IsFinite(x) {
			t.Fatalf("IsFinite(%v) = true", x)
		}
	}
	if !IsFinite(1e300) {
		t.Fatal("IsFinite(1e300) = false")
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 {
		t.Fatal("expected tiny value to flush to zero")
	}
	if FlushDenormals(-1e-35) != 0 {
		t.Fatal("expected tiny negative value to flush to zero")
	}
	if FlushDenormals(1e-6) != 1e-6 {
		t.Fatal("expected normal value to pass through")
	}
}

func TestDBConversions(t *testing.T) {
	linear := DBToLinear(-6)
	db := LinearToDB(linear)
	if math.Abs(db+6) > 1e-10 {
		t.Fatalf("LinearToDB(DBToLinear(-6)) = %v, want -6", db)
	}
	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("expected -Inf for zero")
	}
	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("expected NaN for negative amplitude")
	}
	if DBToLinear(0) != 1 {
		t.Fatalf("DBToLinear(0) = %v, want exactly 1", DBToLinear(0))
	}
}

func TestFastLinearToDB(t *testing.T) {
	for _, lin := range []float64{1, 0.5, 0.1, 0.01, 2} {
		got := FastLinearToDB(lin, -120)
		want := LinearToDB(lin)
		if math.Abs(got-want) > 0.5 {
			t.Errorf("FastLinearToDB(%v) = %v, want ~%v", lin, got, want)
		}
	}
	if got := FastLinearToDB(0, -120); got != -120 {
		t.Fatalf("zero: got %v, want floor", got)
	}
	if got := FastLinearToDB(1e-12, -120); got != -120 {
		t.Fatalf("below floor: got %v, want floor", got)
	}
}

package halfband

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

// response evaluates 0.5*(A0(z^2) + z^-1*A1(z^2)) at f (normalized to the
// oversampled rate).
func response(coefs []float64, f float64) complex128 {
	z := cmplx.Exp(complex(0, -2*math.Pi*f))
	z2 := z * z

	a0, a1 := complex(1, 0), complex(1, 0)
	for i, c := range coefs {
		ap := (complex(c, 0) + z2) / (1 + complex(c, 0)*z2)
		if i%2 == 0 {
			a0 *= ap
		} else {
			a1 *= ap
		}
	}

	return 0.5 * (a0 + z*a1)
}

func TestDesignOrder(t *testing.T) {
	tests := []struct {
		att, tw float64
		want    int
	}{
		{90, 0.10, 6},
		{75, 0.12, 4},
		{80, 0.20, 4},
		{65, 0.24, 3},
	}
	for _, tt := range tests {
		coefs, err := Design(tt.att, tt.tw)
		if err != nil {
			t.Fatalf("Design(%v, %v): %v", tt.att, tt.tw, err)
		}
		if len(coefs) != tt.want {
			t.Errorf("Design(%v, %v): %d coefficients, want %d", tt.att, tt.tw, len(coefs), tt.want)
		}
		for i, c := range coefs {
			if !(c > 0 && c < 1) {
				t.Errorf("coef[%d] = %v outside (0, 1)", i, c)
			}
			if i > 0 && c <= coefs[i-1] {
				t.Errorf("coefficients not increasing at %d: %v", i, coefs)
			}
		}
	}
}

func TestDesignMeetsAttenuationTarget(t *testing.T) {
	for _, tt := range []struct{ att, tw float64 }{{90, 0.10}, {75, 0.12}, {80, 0.20}, {65, 0.24}} {
		coefs, err := Design(tt.att, tt.tw)
		if err != nil {
			t.Fatal(err)
		}

		passEdge := 0.25 - tt.tw/2
		stopEdge := 0.25 + tt.tw/2
		for i := 0; i <= 500; i++ {
			fp := passEdge * float64(i) / 500
			if db := 20 * math.Log10(cmplx.Abs(response(coefs, fp))); math.Abs(db) > 1e-3 {
				t.Fatalf("%v dB/%v: passband %v = %v dB", tt.att, tt.tw, fp, db)
			}

			fs := stopEdge + (0.5-stopEdge)*float64(i)/500
			if db := 20 * math.Log10(cmplx.Abs(response(coefs, fs))); db > -tt.att {
				t.Fatalf("%v dB/%v: stopband %v = %v dB", tt.att, tt.tw, fs, db)
			}
		}
	}
}

func TestDesignErrors(t *testing.T) {
	if _, err := Design(90, 0); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if _, err := Design(90, 0.5); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if _, err := Design(0, 0.1); !errors.Is(err, ErrInvalidAttenuation) {
		t.Fatalf("err = %v, want ErrInvalidAttenuation", err)
	}
	if _, err := Design(math.NaN(), 0.1); !errors.Is(err, ErrInvalidAttenuation) {
		t.Fatalf("err = %v, want ErrInvalidAttenuation", err)
	}
}

func TestLowAttenuationUsesMinimumOrder(t *testing.T) {
	coefs, err := Design(1, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	if len(coefs) != 1 {
		t.Fatalf("got %d coefficients, want 1", len(coefs))
	}
}

func TestGroupDelay(t *testing.T) {
	// Without sections only the one-sample offset of the second path remains.
	if got := GroupDelay(nil); got != 0.5 {
		t.Fatalf("GroupDelay(nil) = %v, want 0.5", got)
	}
	if got := GroupDelay([]float64{0}); got != 1.5 {
		t.Fatalf("GroupDelay([0]) = %v, want 1.5", got)
	}
}

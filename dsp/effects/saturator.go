package effects

import (
	"fmt"
	"math"
)

const (
	minSaturationAmount = 0.0
	maxSaturationAmount = 1.0

	// saturationDriveRange is the extra drive added at full amount.
	saturationDriveRange = 2.0
)

// Saturate applies the console's tanh soft saturation with blend amount in
// [0, 1]:
//
//	drive = 1 + 2*amount
//	y     = x*(1-amount) + tanh(x*drive)*amount
//
// amount <= 0 returns x unchanged; amount > 1 is treated as 1.
func Saturate(x, amount float64) float64 {
	if !(amount > 0) {
		return x
	}

	if amount > maxSaturationAmount {
		amount = maxSaturationAmount
	}

	drive := 1 + amount*saturationDriveRange

	return x*(1-amount) + math.Tanh(x*drive)*amount
}

// SaturatorOption mutates construction-time parameters.
type SaturatorOption func(*saturatorConfig) error

type saturatorConfig struct {
	amount float64
}

// WithSaturationAmount sets the blend amount in [0, 1].
func WithSaturationAmount(amount float64) SaturatorOption {
	return func(cfg *saturatorConfig) error {
		if err := validateSaturationAmount(amount); err != nil {
			return err
		}

		cfg.amount = amount

		return nil
	}
}

func validateSaturationAmount(amount float64) error {
	if amount < minSaturationAmount || amount > maxSaturationAmount || math.IsNaN(amount) {
		return fmt.Errorf("saturation amount must be in [%g, %g]: %f",
			minSaturationAmount, maxSaturationAmount, amount)
	}

	return nil
}

// Saturator is a stateless soft clipper. It is safe to share between
// channels.
type Saturator struct {
	amount float64
}

// NewSaturator creates a Saturator. The default amount is 0 (bypassed).
func NewSaturator(opts ...SaturatorOption) (*Saturator, error) {
	cfg := saturatorConfig{}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Saturator{amount: cfg.amount}, nil
}

// SetAmount updates the blend amount.
func (s *Saturator) SetAmount(amount float64) error {
	if err := validateSaturationAmount(amount); err != nil {
		return err
	}

	s.amount = amount

	return nil
}

// SetAmountClamped updates the blend amount, limiting it to [0, 1]. NaN
// disables saturation.
func (s *Saturator) SetAmountClamped(amount float64) {
	switch {
	case !(amount > minSaturationAmount):
		amount = minSaturationAmount
	case amount > maxSaturationAmount:
		amount = maxSaturationAmount
	}

	s.amount = amount
}

// Amount returns the blend amount.
func (s *Saturator) Amount() float64 { return s.amount }

// Active reports whether processing changes the signal.
func (s *Saturator) Active() bool { return s.amount > 0 }

// ProcessSample saturates one sample.
func (s *Saturator) ProcessSample(x float64) float64 {
	return Saturate(x, s.amount)
}

// ProcessInPlace saturates buf in place. With amount 0 buf is not touched.
func (s *Saturator) ProcessInPlace(buf []float64) {
	if s.amount <= 0 {
		return
	}

	a := s.amount
	drive := 1 + a*saturationDriveRange
	dry := 1 - a

	for i, x := range buf {
		buf[i] = x*dry + math.Tanh(x*drive)*a
	}
}

package param

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the value domain of a parameter.
type Kind int

const (
	// Float is a continuous value in [Min, Max].
	Float Kind = iota
	// Bool is 0 or 1; values above 0.5 read as true.
	Bool
	// Choice is an index into Choices.
	Choice
)

// Descriptor describes one parameter.
type Descriptor struct {
	ID      string
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Default float64
	Kind    Kind
	Choices []string

	// Step is the snapping interval of Denormalize; 0 means continuous.
	Step float64
	// Skew shapes the normalized mapping: n = ((v-Min)/(Max-Min))^Skew.
	// 0 and 1 both mean linear.
	Skew float64
}

// FloatParam returns a continuous parameter descriptor.
func FloatParam(id, name, unit string, min, max, def float64) Descriptor {
	return Descriptor{ID: id, Name: name, Unit: unit, Min: min, Max: max, Default: def, Kind: Float}
}

// BoolParam returns a toggle parameter descriptor.
func BoolParam(id, name string, def bool) Descriptor {
	d := 0.0
	if def {
		d = 1
	}

	return Descriptor{ID: id, Name: name, Min: 0, Max: 1, Default: d, Kind: Bool}
}

// ChoiceParam returns a parameter selecting one of choices.
func ChoiceParam(id, name string, def int, choices ...string) Descriptor {
	return Descriptor{
		ID:      id,
		Name:    name,
		Min:     0,
		Max:     float64(len(choices) - 1),
		Default: float64(def),
		Kind:    Choice,
		Choices: choices,
	}
}

// WithStep returns a copy of d with the given snapping interval.
func (d Descriptor) WithStep(step float64) Descriptor {
	d.Step = step

	return d
}

// WithSkew returns a copy of d with the given normalization skew.
func (d Descriptor) WithSkew(skew float64) Descriptor {
	d.Skew = skew

	return d
}

// Validate reports a malformed descriptor.
func (d Descriptor) Validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	case math.IsNaN(d.Min) || math.IsNaN(d.Max) || d.Min > d.Max:
		return fmt.Errorf("%w: %s: range [%g, %g]", ErrInvalidDescriptor, d.ID, d.Min, d.Max)
	case d.Default < d.Min || d.Default > d.Max:
		return fmt.Errorf("%w: %s: default %g outside [%g, %g]", ErrInvalidDescriptor, d.ID, d.Default, d.Min, d.Max)
	case d.Kind == Choice && len(d.Choices) == 0:
		return fmt.Errorf("%w: %s: choice without labels", ErrInvalidDescriptor, d.ID)
	case d.Step < 0 || d.Skew < 0 || math.IsNaN(d.Step) || math.IsNaN(d.Skew):
		return fmt.Errorf("%w: %s: step %g skew %g", ErrInvalidDescriptor, d.ID, d.Step, d.Skew)
	}

	return nil
}

// Clamp maps v into the valid domain: NaN becomes the default, Float
// values are clamped to range, Bool values become 0 or 1 and Choice values
// are rounded to the nearest valid index.
func (d Descriptor) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return d.Default
	}

	switch d.Kind {
	case Bool:
		if v > 0.5 {
			return 1
		}

		return 0
	case Choice:
		v = math.Round(v)
	}

	return math.Min(math.Max(v, d.Min), d.Max)
}

// Normalize maps a plain value to [0, 1].
func (d Descriptor) Normalize(v float64) float64 {
	if d.Max <= d.Min {
		return 0
	}

	n := (d.Clamp(v) - d.Min) / (d.Max - d.Min)
	if d.skewed() {
		n = math.Pow(n, d.Skew)
	}

	return n
}

// Denormalize maps a normalized value in [0, 1] to the plain domain.
func (d Descriptor) Denormalize(n float64) float64 {
	n = math.Min(math.Max(n, 0), 1)
	if d.skewed() {
		n = math.Pow(n, 1/d.Skew)
	}

	v := d.Min + n*(d.Max-d.Min)
	if d.Kind == Float && d.Step > 0 {
		v = d.Min + math.Round((v-d.Min)/d.Step)*d.Step
	}

	return d.Clamp(v)
}

func (d Descriptor) skewed() bool {
	return d.Kind == Float && d.Skew > 0 && d.Skew != 1
}

// Format renders v for display.
func (d Descriptor) Format(v float64) string {
	v = d.Clamp(v)

	switch d.Kind {
	case Bool:
		if v > 0.5 {
			return "on"
		}

		return "off"
	case Choice:
		return d.Choices[int(v)]
	}

	out := strconv.FormatFloat(v, 'f', 2, 64)
	if d.Unit != "" {
		out += " " + d.Unit
	}

	return out
}

// Parse reads a value in the form produced by Format. Choice labels and
// on/off/true/false are accepted as well as plain numbers.
func (d Descriptor) Parse(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if d.Unit != "" {
		str = strings.TrimSpace(strings.TrimSuffix(str, d.Unit))
	}

	switch d.Kind {
	case Bool:
		switch strings.ToLower(str) {
		case "on", "true", "yes":
			return 1, nil
		case "off", "false", "no":
			return 0, nil
		}
	case Choice:
		for i, c := range d.Choices {
			if strings.EqualFold(c, str) {
				return float64(i), nil
			}
		}
	}

	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("param %s: parse %q: %w", d.ID, str, err)
	}

	return d.Clamp(v), nil
}

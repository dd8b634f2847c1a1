package param

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

var (
	// ErrUnknownParameter is returned for identifiers not in the store.
	ErrUnknownParameter = errors.New("param: unknown parameter")
	// ErrInvalidDescriptor is returned by NewStore for malformed descriptors.
	ErrInvalidDescriptor = errors.New("param: invalid descriptor")
	// ErrDuplicateID is returned by NewStore when two descriptors share an id.
	ErrDuplicateID = errors.New("param: duplicate id")
)

// Parameter is one atomically updated value.
type Parameter struct {
	Descriptor

	bits atomic.Uint64
}

// Load returns the current plain value.
func (p *Parameter) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Store clamps and sets the plain value.
func (p *Parameter) Store(v float64) {
	p.bits.Store(math.Float64bits(p.Clamp(v)))
}

// Store holds a fixed set of parameters. The set never changes after
// NewStore, so lookups need no locking.
type Store struct {
	params []*Parameter
	index  map[string]*Parameter
}

// NewStore creates a store with every parameter at its default.
func NewStore(descs []Descriptor) (*Store, error) {
	s := &Store{
		params: make([]*Parameter, 0, len(descs)),
		index:  make(map[string]*Parameter, len(descs)),
	}

	for _, desc := range descs {
		if err := desc.Validate(); err != nil {
			return nil, err
		}

		if _, dup := s.index[desc.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, desc.ID)
		}

		p := &Parameter{Descriptor: desc}
		p.Store(desc.Default)

		s.params = append(s.params, p)
		s.index[desc.ID] = p
	}

	return s, nil
}

// Lookup returns the parameter with the given id.
func (s *Store) Lookup(id string) (*Parameter, bool) {
	p, ok := s.index[id]

	return p, ok
}

// Load returns the value of id, or NaN for unknown identifiers.
func (s *Store) Load(id string) float64 {
	p, ok := s.index[id]
	if !ok {
		return math.NaN()
	}

	return p.Load()
}

// Set clamps and stores the value of id.
func (s *Store) Set(id string, v float64) error {
	p, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}

	p.Store(v)

	return nil
}

// SetString parses str with the parameter's format and stores it.
func (s *Store) SetString(id, str string) error {
	p, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, id)
	}

	v, err := p.Parse(str)
	if err != nil {
		return err
	}

	p.Store(v)

	return nil
}

// Descriptors returns the parameter descriptors in registration order.
func (s *Store) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.params))
	for i, p := range s.params {
		out[i] = p.Descriptor
	}

	return out
}

// Values returns a copy of all current values keyed by id.
func (s *Store) Values() map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for _, p := range s.params {
		out[p.ID] = p.Load()
	}

	return out
}

// Replace sets every parameter in one pass: ids present in values take the
// given value, all others return to their default. An unknown id rejects
// the whole set and leaves the store unchanged.
func (s *Store) Replace(values map[string]float64) error {
	for id := range values {
		if _, ok := s.index[id]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParameter, id)
		}
	}

	for _, p := range s.params {
		if v, ok := values[p.ID]; ok {
			p.Store(v)
		} else {
			p.Store(p.Default)
		}
	}

	return nil
}

// ResetDefaults returns every parameter to its default.
func (s *Store) ResetDefaults() {
	for _, p := range s.params {
		p.Store(p.Default)
	}
}

package param

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StateVersion is the version written by MarshalState.
const StateVersion = 1

// ErrUnsupportedVersion is returned for state documents of another version.
var ErrUnsupportedVersion = errors.New("param: unsupported state version")

// State is the persisted form of a parameter set.
type State struct {
	Version int                `json:"version"`
	Params  map[string]float64 `json:"params"`
}

// State captures the current values.
func (s *Store) State() State {
	return State{Version: StateVersion, Params: s.Values()}
}

// SetState bulk-replaces all values from st.
func (s *Store) SetState(st State) error {
	if st.Version != StateVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, st.Version)
	}

	return s.Replace(st.Params)
}

// MarshalState encodes the current values as JSON.
func (s *Store) MarshalState() ([]byte, error) {
	data, err := json.Marshal(s.State())
	if err != nil {
		return nil, fmt.Errorf("param: encode state: %w", err)
	}

	return data, nil
}

// UnmarshalState decodes a JSON state document and applies it with
// SetState.
func (s *Store) UnmarshalState(data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("param: decode state: %w", err)
	}

	return s.SetState(st)
}

// Package cli binds engine parameters to command-line flags.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cwbudde/algo-fourkeq/param"
)

type assignment struct {
	id    string
	value string
}

// ParamFlags holds one flag per parameter of a store plus -state and
// -save-state. Values are applied by Apply, not while parsing.
type ParamFlags struct {
	store       *param.Store
	statePath   string
	savePath    string
	assignments []assignment
}

// RegisterParams adds the parameter flags of store to fs.
func RegisterParams(fs *flag.FlagSet, store *param.Store) *ParamFlags {
	pf := &ParamFlags{store: store}

	fs.StringVar(&pf.statePath, "state", "", "JSON parameter state applied before individual parameter flags")
	fs.StringVar(&pf.savePath, "save-state", "", "write the final parameter state as JSON to this file")

	for _, d := range store.Descriptors() {
		fs.Func(d.ID, usage(d), func(s string) error {
			if _, err := d.Parse(s); err != nil {
				return err
			}

			pf.assignments = append(pf.assignments, assignment{id: d.ID, value: s})

			return nil
		})
	}

	return pf
}

func usage(d param.Descriptor) string {
	var domain string

	switch d.Kind {
	case param.Bool:
		domain = "on|off"
	case param.Choice:
		domain = strings.Join(d.Choices, "|")
	default:
		domain = fmt.Sprintf("%g..%g", d.Min, d.Max)
		if d.Unit != "" {
			domain += " " + d.Unit
		}
	}

	return fmt.Sprintf("%s, %s (default %s)", d.Name, domain, d.Format(d.Default))
}

// Apply loads -state if given, then the individual parameter flags in
// command-line order, then writes -save-state if given.
func (pf *ParamFlags) Apply() error {
	if pf.statePath != "" {
		data, err := os.ReadFile(pf.statePath)
		if err != nil {
			return fmt.Errorf("cli: read state: %w", err)
		}

		if err := pf.store.UnmarshalState(data); err != nil {
			return fmt.Errorf("cli: %s: %w", pf.statePath, err)
		}
	}

	for _, a := range pf.assignments {
		if err := pf.store.SetString(a.id, a.value); err != nil {
			return fmt.Errorf("cli: -%s: %w", a.id, err)
		}
	}

	if pf.savePath != "" {
		data, err := pf.store.MarshalState()
		if err != nil {
			return err
		}

		if err := os.WriteFile(pf.savePath, data, 0o644); err != nil {
			return fmt.Errorf("cli: write state: %w", err)
		}
	}

	return nil
}

// PrintParams writes one "name = value" line per parameter.
func PrintParams(w io.Writer, store *param.Store) {
	for _, d := range store.Descriptors() {
		fmt.Fprintf(w, "  %-16s %s\n", d.Name, d.Format(store.Load(d.ID)))
	}
}

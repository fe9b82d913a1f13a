package runner

import (
	"fmt"
	"io"
)

// TestCase is a known UVM test of the project
type TestCase struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Lookup returns a test by name
func (m *Manifest) Lookup(name string) (*TestCase, error) {
	for _, tc := range m.Tests {
		if tc.Name == name {
			return &tc, nil
		}
	}
	return nil, fmt.Errorf("test '%s' not found", name)
}

// PrintTests writes the test catalogue in the format used by --list
func (m *Manifest) PrintTests(w io.Writer) {
	width := 0
	for _, tc := range m.Tests {
		if len(tc.Name) > width {
			width = len(tc.Name)
		}
	}

	fmt.Fprintln(w, "\nAvailable Tests:")
	for _, tc := range m.Tests {
		if tc.Description == "" {
			fmt.Fprintf(w, "  - %s\n", tc.Name)
			continue
		}
		fmt.Fprintf(w, "  - %-*s: %s\n", width, tc.Name, tc.Description)
	}
	fmt.Fprintln(w, "\nUsage: uvmrun --test <test_name>")
}

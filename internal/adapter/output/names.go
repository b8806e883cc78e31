package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/chime/internal/bundle"
)

// NamesFormatter outputs just the category names, one per line.
// Useful for piping to other commands (e.g., chime play).
type NamesFormatter struct{}

// NewNamesFormatter creates a new names formatter.
func NewNamesFormatter() *NamesFormatter {
	return &NamesFormatter{}
}

// Format writes category names to the writer, one per line.
func (f *NamesFormatter) Format(w io.Writer, slots []bundle.Slot) error {
	for _, s := range slots {
		if _, err := fmt.Fprintln(w, s.Category); err != nil {
			return err
		}
	}
	return nil
}

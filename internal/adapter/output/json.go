package output

import (
	"io"

	"github.com/jmylchreest/chime/internal/bundle"
)

// JSONFormatter formats slots as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes slots as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, slots []bundle.Slot) error {
	if slots == nil {
		slots = []bundle.Slot{}
	}
	return Encode(w, FormatJSON, slots)
}

// YAMLFormatter formats slots as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes slots as YAML.
func (f *YAMLFormatter) Format(w io.Writer, slots []bundle.Slot) error {
	return Encode(w, FormatYAML, slots)
}

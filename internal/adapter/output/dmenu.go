package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/jmylchreest/chime/internal/bundle"
)

// DmenuFormatter formats slots for dmenu/rofi/fuzzel pickers.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	f := &DmenuFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("dmenu").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes slots in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, slots []bundle.Slot) error {
	for i := range slots {
		line := f.formatLine(i+1, &slots[i])
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats a single slot line. The category comes first so a
// picker's selection can be cut back to a name for chime play.
func (f *DmenuFormatter) formatLine(index int, s *bundle.Slot) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, templateData{Index: index, Slot: s}); err == nil {
			return buf.String()
		}
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}
	parts = append(parts, s.Category.String(), s.Asset)
	if s.Error != "" {
		parts = append(parts, "!"+s.Error)
	}

	return strings.Join(parts, sep)
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	Slot  *bundle.Slot
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(s string, maxLen int) string {
			if maxLen <= 0 || ansi.PrintableRuneWidth(s) <= maxLen {
				return s
			}
			if maxLen <= 3 {
				return truncate.String(s, uint(maxLen))
			}
			return truncate.StringWithTail(s, uint(maxLen), "...")
		},
		"bytes": func(n int64) string {
			if n <= 0 {
				return "-"
			}
			return humanize.Bytes(uint64(n))
		},
	}
}

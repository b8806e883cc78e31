package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/chime/internal/bundle"
)

// PlainFormatter formats slots as an aligned table.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes slots as plain text.
func (f *PlainFormatter) Format(w io.Writer, slots []bundle.Slot) error {
	if f.template != nil {
		for i := range slots {
			if err := f.template.Execute(w, templateData{Index: i + 1, Slot: &slots[i]}); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i := range slots {
		s := &slots[i]
		if f.opts.ShowIndex {
			fmt.Fprintf(tw, "%d\t", i+1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Category, s.Asset, describe(s))
	}
	return tw.Flush()
}

// describe summarises where a slot's sound comes from.
func describe(s *bundle.Slot) string {
	if s.Error != "" {
		return "error: " + s.Error
	}
	desc := s.Source
	if s.Size > 0 {
		desc += " " + humanize.Bytes(uint64(s.Size))
	}
	if s.Override {
		desc += " (override)"
	}
	return desc
}

// FormatField outputs a specific field from a slot.
func FormatField(s *bundle.Slot, field string) string {
	switch field {
	case "category", "name":
		return s.Category.String()
	case "title":
		return s.Category.Title()
	case "source":
		return s.Source
	case "size":
		return humanize.Bytes(uint64(max(s.Size, 0)))
	case "error":
		return s.Error
	default:
		return s.Asset
	}
}

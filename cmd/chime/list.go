package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chime/internal/adapter/output"
	"github.com/jmylchreest/chime/internal/bundle"
)

var listOpts struct {
	format   string
	template string
	index    bool
	all      bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sound each category plays",
	Long: `List every category with the sound it resolves to under the current
configuration, where that sound comes from and its size.

With --all, list every sound file available in the bundle instead.

Examples:
  chime list
  chime list --format json
  chime list --format dmenu | fuzzel -d | cut -d' ' -f1 | xargs chime play
  chime list --template '{{.Slot.Category}} {{bytes .Slot.Size}}{{"\n"}}'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listOpts.format, "format", "f", "plain",
		"Output format (plain, dmenu, json, yaml, names)")
	listCmd.Flags().StringVar(&listOpts.template, "template", "",
		"Custom Go template for plain/dmenu output")
	listCmd.Flags().BoolVar(&listOpts.index, "index", false,
		"Prefix each line with its 1-based index")
	listCmd.Flags().BoolVarP(&listOpts.all, "all", "a", false,
		"List every sound in the bundle")
}

func runList(cmd *cobra.Command, args []string) error {
	c := getConfig()
	b := bundle.New(c.Audio.AssetsDir)
	out := cmd.OutOrStdout()

	if listOpts.all {
		return listBundle(out, b)
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = listOpts.template
	opts.ShowIndex = listOpts.index

	slots := b.Slots(c)
	logger.Debug("resolved sounds", "count", len(slots), "bundle", b.Source())
	return output.NewFormatter(output.FormatType(listOpts.format), opts).Format(out, slots)
}

func listBundle(w io.Writer, b *bundle.Bundle) error {
	entries, err := b.List()
	if err != nil {
		return fmt.Errorf("failed to list bundle: %w", err)
	}

	switch output.FormatType(listOpts.format) {
	case output.FormatJSON, output.FormatYAML:
		return output.Encode(w, output.FormatType(listOpts.format), entries)
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, humanize.Bytes(uint64(e.Size)), e.Source); err != nil {
			return err
		}
	}
	return nil
}

// writeFormatted encodes v for the json and yaml formats.
func writeFormatted(w io.Writer, format string, v any) error {
	return output.Encode(w, output.FormatType(format), v)
}

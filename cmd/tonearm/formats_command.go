package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tonearm/internal/codec"
)

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List decodable input formats and available encoders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withTools(func(ts *toolset) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Input formats", colorize) {
					fmt.Fprintln(out, line)
				}
				inputs := [][]string{{"pcm", "Wave Audio (PCM)", "wav", "built in"}}
				for _, d := range ts.decoders() {
					for _, t := range d.SupportedTypes() {
						inputs = append(inputs, []string{d.Name(), t.Name, strings.Join(t.Extensions, ", "), "decoded first"})
					}
				}
				fmt.Fprintln(out, renderTable([]string{"Decoder", "Format", "Extensions", "Handling"}, inputs, nil))

				for _, line := range renderSectionHeader("Encoders", colorize) {
					fmt.Fprintln(out, line)
				}
				var encoders [][]string
				for _, name := range codec.EncoderNames {
					enc, err := ts.encoder(name)
					if err != nil {
						encoders = append(encoders, []string{name, "unavailable", "", ""})
						continue
					}
					info := enc.Info()
					encoders = append(encoders, []string{name, info.Description, info.Extension, describeModes(info)})
				}
				fmt.Fprintln(out, renderTable([]string{"Codec", "Description", "Extension", "Rate control"}, encoders, nil))
				if len(ts.missing) > 0 {
					fmt.Fprintln(out, renderStatusLine("Missing tools", statusWarn, strings.Join(ts.missing, ", "), colorize))
				}
				return nil
			})
		},
	}
}

// describeModes renders each rate-control mode with its value range.
func describeModes(info codec.EncoderInfo) string {
	modes := info.Modes()
	if len(modes) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(modes))
	for _, mode := range modes {
		count := info.ValueCount(mode)
		lo, _ := info.ValueAt(mode, 0)
		hi, _ := info.ValueAt(mode, count-1)
		kind, _ := info.ValueType(mode)
		unit := ""
		if kind == codec.Bitrate {
			unit = " kbit/s"
		}
		parts = append(parts, fmt.Sprintf("%s: %s %d..%d%s", mode, kind, lo, hi, unit))
	}
	return strings.Join(parts, "; ")
}

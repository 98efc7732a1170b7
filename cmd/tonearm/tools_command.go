package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonearm/internal/preflight"
	"tonearm/internal/tools"
)

type toolRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

func newToolsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Show which codec tools are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withVersionedTools(cmd.Context(), func(ts *toolset) error {
				registered := make(map[string]tools.Info)
				for _, info := range ts.registry.List() {
					registered[info.Name] = info
				}
				statuses := preflight.CheckSystemDeps(ts.resolver)
				rows := make([]toolRow, 0, len(statuses))
				for _, s := range statuses {
					row := toolRow{
						Name:        s.Name,
						Description: s.Description,
						Available:   s.Available,
						Path:        s.Path,
						Detail:      s.Detail,
					}
					if info, ok := registered[tools.Key(s.Command)]; ok {
						row.Version = tools.FormatVersion(info.Version)
						row.Banner = info.Tag
					}
					rows = append(rows, row)
				}
				if asJSON {
					return writeJSON(cmd, rows)
				}

				out := cmd.OutOrStdout()
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					location := r.Path
					if !r.Available {
						location = r.Detail
					}
					table = append(table, []string{r.Name, r.Description, yesNo(r.Available), r.Version, location})
				}
				fmt.Fprintln(out, renderTable([]string{"Tool", "Role", "Available", "Version", "Location"}, table, nil))

				colorize := shouldColorize(out)
				support := preflight.CheckSupportFiles(ts.cfg)
				kind := statusOK
				if !support.Passed {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine(support.Name, kind, support.Detail, colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

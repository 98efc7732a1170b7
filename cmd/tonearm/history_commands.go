package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tonearm/internal/history"
	"tonearm/internal/logging"
)

type historyJobJSON struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Output      string   `json:"output,omitempty"`
	Codec       string   `json:"codec,omitempty"`
	Step        string   `json:"step,omitempty"`
	State       string   `json:"state"`
	Outcome     string   `json:"outcome,omitempty"`
	ExitCode    int      `json:"exit_code"`
	OutputBytes int64    `json:"output_bytes"`
	Error       string   `json:"error,omitempty"`
	StartedAt   string   `json:"started_at"`
	FinishedAt  string   `json:"finished_at"`
	Messages    []string `json:"messages,omitempty"`
}

func toHistoryJSON(job *history.Job, messages []string) historyJobJSON {
	return historyJobJSON{
		ID:          job.ID,
		Source:      job.Source,
		Output:      job.Output,
		Codec:       job.Codec,
		Step:        job.Step,
		State:       job.State,
		Outcome:     job.Outcome,
		ExitCode:    job.ExitCode,
		OutputBytes: job.OutputBytes,
		Error:       job.Error,
		StartedAt:   job.StartedAt.Format(time.RFC3339),
		FinishedAt:  job.FinishedAt.Format(time.RFC3339),
		Messages:    messages,
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect finished conversion jobs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				jobs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					out := make([]historyJobJSON, 0, len(jobs))
					for _, job := range jobs {
						out = append(out, toHistoryJSON(job, nil))
					}
					return writeJSON(cmd, out)
				}

				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						logging.FormatSubject(job.ID, "", ""),
						job.State,
						job.Codec,
						truncateMiddle(job.Source, 48),
						humanize.IBytes(uint64(max(job.OutputBytes, 0))),
						humanize.Time(job.FinishedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "State", "Codec", "Source", "Size", "Finished"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job and the tool output it recorded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				job, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				messages, err := store.Messages(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, toHistoryJSON(job, messages))
				}

				out := cmd.OutOrStdout()
				fields := [][2]string{
					{"Job", job.ID},
					{"State", job.State},
					{"Step", job.Step},
					{"Codec", job.Codec},
					{"Source", job.Source},
					{"Output", job.Output},
					{"Outcome", job.Outcome},
					{"Exit code", strconv.Itoa(job.ExitCode)},
					{"Output size", humanize.IBytes(uint64(max(job.OutputBytes, 0)))},
					{"Started", job.StartedAt.Local().Format(time.DateTime)},
					{"Duration", job.Duration().Round(time.Millisecond).String()},
				}
				if job.Error != "" {
					fields = append(fields, [2]string{"Error", job.Error})
				}
				for _, f := range fields {
					if f[1] == "" {
						continue
					}
					fmt.Fprintf(out, "%-12s %s\n", f[0]+":", f[1])
				}
				if len(messages) > 0 {
					fmt.Fprintln(out)
					for _, line := range messages {
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete jobs that finished before a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return errors.New("pass --older-than with a positive duration, or --all")
			}
			cutoff := time.Now().Add(-olderThan)
			if all {
				cutoff = time.Now().Add(time.Second)
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", pluralize(removed, "job"))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove jobs that finished longer ago than this")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every recorded job")
	return cmd
}

func pluralize(n int64, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func truncateMiddle(value string, limit int) string {
	runes := []rune(value)
	if limit < 5 || len(runes) <= limit {
		return value
	}
	keep := (limit - 1) / 2
	return string(runes[:keep]) + "…" + string(runes[len(runes)-(limit-1-keep):])
}

package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, status)
				}
				renderStatus(cmd, status)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func renderStatus(cmd *cobra.Command, status api.DaemonStatus) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusError
	runningText := "stopped"
	if status.Running {
		runningKind = statusOK
		runningText = fmt.Sprintf("pid %d", status.PID)
	}
	fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningText, colorize))
	fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.JobDBPath, colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Jobs", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Status", "Count"},
		buildStatsRows(status.Pipeline.JobStats),
		[]columnAlignment{alignLeft, alignRight},
	))

	if len(status.Pipeline.StageHealth) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Stage Health", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, health := range status.Pipeline.StageHealth {
			kind := statusOK
			if !health.Ready {
				kind = statusError
			}
			fmt.Fprintln(out, renderStatusLine(displayLabel(health.Name), kind, health.Detail, colorize))
		}
	}

	if len(status.Pipeline.LiveTasks) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Active Preprocessing", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(status.Pipeline.LiveTasks))
		for _, task := range status.Pipeline.LiveTasks {
			rows = append(rows, []string{
				strconv.FormatInt(task.JobID, 10),
				displayLabel(task.Stage),
				task.StartedAt,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Job", "Stage", "Started"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft},
		))
	}
}

// buildStatsRows orders non-zero status counts with total last.
func buildStatsRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		if key == "total" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys)+1)
	for _, key := range keys {
		if stats[key] == 0 {
			continue
		}
		rows = append(rows, []string{displayLabel(key), strconv.Itoa(stats[key])})
	}
	if total, ok := stats["total"]; ok {
		rows = append(rows, []string{strings.ToUpper("total"), strconv.Itoa(total)})
	}
	return rows
}

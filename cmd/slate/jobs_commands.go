package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect pipeline jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsAuditCommand(ctx))
	jobsCmd.AddCommand(newJobsPreprocessingCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var listStage string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				items, err := client.Jobs(cmd.Context(), listStatuses, listStage)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: items})
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Stage", "Status", "Priority", "Created"},
					buildJobRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	cmd.Flags().StringVar(&listStage, "stage", "", "Filter by current stage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show job details, results, and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				detail, err := client.Job(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, detail)
				}
				renderJobDetail(cmd, detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newJobsAuditCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit <job-id>",
		Short: "Show the audit trail for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				entries, err := client.Audit(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.AuditResponse{Entries: entries})
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit entries")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.CreatedAt,
						displayLabel(entry.Stage),
						entry.Action,
						entry.Actor,
						entry.Message,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Time", "Stage", "Action", "Actor", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newJobsPreprocessingCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocessing <job-id> <stage>",
		Short: "Show preprocessing state for a job and stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				resp, err := client.Preprocessing(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d %s preprocessing: %s\n",
					resp.JobID, displayLabel(resp.Stage), displayLabel(resp.State))
				return nil
			})
		},
	}
	return cmd
}

func renderJobDetail(cmd *cobra.Command, detail *api.JobDetailResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	job := detail.Job

	for _, line := range renderSectionHeader(fmt.Sprintf("Job %d", job.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, job.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, displayLabel(job.Stage), colorize))
	fmt.Fprintln(out, renderStatusLine("Status", statusInfo, displayLabel(job.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Design", statusInfo, job.DesignFile, colorize))
	fmt.Fprintln(out, renderStatusLine("Template", statusInfo, job.TemplateFile, colorize))
	if job.BatchID != "" {
		fmt.Fprintln(out, renderStatusLine("Batch", statusInfo, job.BatchID, colorize))
	}
	if job.OverrideReason != "" {
		fmt.Fprintln(out, renderStatusLine("Override", statusWarn, job.OverrideReason, colorize))
	}
	if job.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, job.ErrorMessage, colorize))
	}

	if len(detail.Results) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Stage Results", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, result := range detail.Results {
			kind := statusOK
			message := "succeeded"
			if !result.Success {
				kind = statusError
				message = result.ErrorMessage
			}
			fmt.Fprintln(out, renderStatusLine(displayLabel(result.Stage), kind, message, colorize))
		}
	}

	if detail.Counts.Total() > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Warnings", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(detail.Warnings))
		for _, warning := range detail.Warnings {
			rows = append(rows, []string{
				displayLabel(warning.Stage),
				strings.ToUpper(warning.Severity),
				warning.Category,
				warning.Message,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Stage", "Severity", "Category", "Message"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}

	if len(detail.Completions) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Completed Stages", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, completion := range detail.Completions {
			fmt.Fprintln(out, renderStatusLine(displayLabel(completion.Stage), statusOK, completion.CompletedAt, colorize))
		}
	}
}

func buildJobRows(items []api.JobItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			displayLabel(item.Stage),
			displayLabel(item.Status),
			strconv.Itoa(item.Priority),
			item.CreatedAt,
		})
	}
	return rows
}

func parseJobID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid job id %q", value)
	}
	return id, nil
}

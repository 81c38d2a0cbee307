package main

import (
	"fmt"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/api"
)

func newTransitionCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var reason string

	cmd := &cobra.Command{
		Use:   "transition <job-id> <stage>",
		Short: "Move a job to a target stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				job, err := client.Transition(cmd.Context(), id, api.TransitionRequest{
					TargetStage:    strings.TrimSpace(args[1]),
					Actor:          resolveActor(actor),
					OverrideReason: strings.TrimSpace(reason),
				})
				if err != nil {
					return err
				}
				printTransitionResult(cmd, job)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Name recorded in the audit log (defaults to the current user)")
	cmd.Flags().StringVar(&reason, "reason", "", "Override reason, required when skipping validation review")
	return cmd
}

// newApproveCommand advances a job through its current human checkpoint:
// match review to validation, or preview to completion.
func newApproveCommand(ctx *commandContext) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "approve <job-id>",
		Short: "Approve a job waiting at a review checkpoint",
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

				var target string
				switch detail.Job.Stage {
				case "match_review":
					target = "validation"
				case "preview":
					target = "complete"
				case "validation_review":
					return fmt.Errorf("job %d is at validation review; use `slate transition %d scripting --reason <why>` to override or `slate reject %d` to send it back", id, id, id)
				default:
					return fmt.Errorf("job %d is at %s and has nothing to approve", id, displayLabel(detail.Job.Stage))
				}

				job, err := client.Transition(cmd.Context(), id, api.TransitionRequest{
					TargetStage: target,
					Actor:       resolveActor(actor),
				})
				if err != nil {
					return err
				}
				printTransitionResult(cmd, job)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Name recorded in the audit log (defaults to the current user)")
	return cmd
}

// newRejectCommand sends a job at validation review back to match review.
func newRejectCommand(ctx *commandContext) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "reject <job-id>",
		Short: "Send a job at validation review back to match review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				job, err := client.Transition(cmd.Context(), id, api.TransitionRequest{
					TargetStage: "match_review",
					Actor:       resolveActor(actor),
				})
				if err != nil {
					return err
				}
				printTransitionResult(cmd, job)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Name recorded in the audit log (defaults to the current user)")
	return cmd
}

func printTransitionResult(cmd *cobra.Command, job api.JobItem) {
	if job.Status == "completed" {
		fmt.Fprintf(cmd.OutOrStdout(), "Job %d completed\n", job.ID)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Job %d is now at %s (%s)\n",
		job.ID, displayLabel(job.Stage), displayLabel(job.Status))
}

func resolveActor(flag string) string {
	if trimmed := strings.TrimSpace(flag); trimmed != "" {
		return trimmed
	}
	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}
	return "operator"
}

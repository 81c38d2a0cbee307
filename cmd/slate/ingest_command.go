package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"slate/internal/api"
	"slate/internal/config"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var title string
	var priority int
	var batchFile string

	cmd := &cobra.Command{
		Use:   "ingest [design-file template-file]",
		Short: "Submit jobs for processing",
		Long: `Submit a single design/template pair, or a whole batch from a JSON
file with --batch (the file holds an array of {title, designFile,
templateFile, priority} objects).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := collectIngestItems(args, title, priority, batchFile)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *apiClient) error {
				resp, err := client.Ingest(cmd.Context(), api.IngestRequest{Items: items})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Created batch %s with %d job(s)\n", resp.BatchID, len(resp.Jobs))
				for _, job := range resp.Jobs {
					fmt.Fprintf(out, "  job %d: %s\n", job.ID, job.Title)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title for the job")
	cmd.Flags().IntVar(&priority, "priority", 0, "Scheduling priority, higher runs first")
	cmd.Flags().StringVar(&batchFile, "batch", "", "JSON file describing a batch of jobs")
	return cmd
}

func collectIngestItems(args []string, title string, priority int, batchFile string) ([]api.IngestItem, error) {
	if strings.TrimSpace(batchFile) != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--batch cannot be combined with positional files")
		}
		return readBatchFile(batchFile)
	}

	if len(args) != 2 {
		return nil, fmt.Errorf("expected <design-file> <template-file> or --batch <file>")
	}
	design, err := config.ExpandPath(args[0])
	if err != nil {
		return nil, fmt.Errorf("resolve design file: %w", err)
	}
	template, err := config.ExpandPath(args[1])
	if err != nil {
		return nil, fmt.Errorf("resolve template file: %w", err)
	}
	return []api.IngestItem{{
		Title:        strings.TrimSpace(title),
		DesignFile:   design,
		TemplateFile: template,
		Priority:     priority,
	}}, nil
}

func readBatchFile(path string) ([]api.IngestItem, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve batch file: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var items []api.IngestItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("batch file %s contains no jobs", expanded)
	}
	return items, nil
}

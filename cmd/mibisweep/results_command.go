package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mibisweep/internal/results"
)

func newResultsCommand(cmdCtx *commandContext) *cobra.Command {
	var sweepID string

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded sweep outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := results.Open(cfg)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), sweepID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				detail := run.ArtifactPath
				if run.Error != "" {
					detail = run.Error
				}
				rows = append(rows, []string{
					run.Identifier,
					run.Methods,
					statusLabel(run.Status),
					formatBytes(run.ArtifactSize),
					run.Duration.Round(time.Second).String(),
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Identifier", "Methods", "Status", "Size", "Duration", "Recorded", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))

			summary, err := store.Summarize(cmd.Context(), sweepID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d runs: %d done, %d failed, %d skipped\n",
				summary.Total, summary.Done, summary.Failed, summary.Collisions)
			return nil
		},
	}

	cmd.Flags().StringVar(&sweepID, "sweep", "", "Only show runs for one sweep ID")
	return cmd
}

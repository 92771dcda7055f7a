package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mibisweep/internal/config"
	"mibisweep/internal/linker"
	"mibisweep/internal/logging"
)

func newLinkCommand(cmdCtx *commandContext) *cobra.Command {
	var reviewDir string

	cmd := &cobra.Command{
		Use:   "link <run-data-dir>",
		Short: "Symlink a run's slide images into the review directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			runDataDir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target := reviewDir
			if target == "" {
				target = cfg.Paths.ReviewDir
			} else if target, err = config.ExpandPath(target); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			linked, err := linker.New(logger).Link(cmd.Context(), runDataDir, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %d images into %s\n", linked, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewDir, "review-dir", "", "Review directory (defaults to paths.review_dir)")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mibisweep/internal/preflight"
)

func newPreflightCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check that the sweep's runtime requirements are met",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			checks := preflight.RunAll(cfg)
			printPreflight(cmd, checks)
			if !preflight.AllPassed(checks) {
				return fmt.Errorf("preflight checks failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All checks passed")
			return nil
		},
	}
}

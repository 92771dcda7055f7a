package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mibisweep/internal/config"
	"mibisweep/internal/logging"
	"mibisweep/internal/visualize"
)

func newExtractCommand(cmdCtx *commandContext) *cobra.Command {
	var outputRoot string
	var fovList string

	cmd := &cobra.Command{
		Use:   "extract <tiff-dir>",
		Short: "Render per-channel PNGs from generated TIFFs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			tiffDir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			list := fovList
			if list == "" {
				list = filepath.Join(tiffDir, "FOV_List.csv")
			} else if list, err = config.ExpandPath(list); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			written, err := visualize.NewExtractor(logger).Extract(cmd.Context(), visualize.Options{
				TIFFDir:    tiffDir,
				FOVListCSV: list,
				OutputRoot: outputRoot,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d PNGs\n", written)
			return nil
		},
	}

	cmd.Flags().StringVar(&fovList, "fov-list", "", "FOV list CSV (defaults to FOV_List.csv in the TIFF directory)")
	cmd.Flags().StringVar(&outputRoot, "out", "", "Where to create the PNGs directory (defaults to the TIFF directory)")
	return cmd
}

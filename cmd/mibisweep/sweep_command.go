package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mibisweep/internal/archive"
	"mibisweep/internal/config"
	"mibisweep/internal/fov"
	"mibisweep/internal/logging"
	"mibisweep/internal/preflight"
	"mibisweep/internal/results"
	"mibisweep/internal/runconfig"
	"mibisweep/internal/services/mibio"
	"mibisweep/internal/supervisor"
	"mibisweep/internal/sweep"
)

func newSweepCommand(cmdCtx *commandContext) *cobra.Command {
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the background-removal parameter sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			if !skipPreflight {
				checks := preflight.RunAll(cfg)
				printPreflight(cmd, checks)
				if !preflight.AllPassed(checks) {
					return fmt.Errorf("preflight checks failed")
				}
			}

			// One sweep at a time: the tool config is a shared resource.
			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "mibisweep.lock"))
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return fmt.Errorf("another mibisweep sweep is already running")
			}
			defer func() {
				_ = lock.Unlock()
			}()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sweepID := uuid.NewString()
			runStamp := time.Now().UTC().Format("20060102T150405Z")
			logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("mibisweep-%s.log", runStamp))
			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stdout", logPath},
				ErrorOutputPaths: []string{"stderr", logPath},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := results.Open(cfg)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			source, err := fovSource(cfg)
			if err != nil {
				return err
			}

			launcher := mibio.NewLauncher(cfg.Tool.Binary, cfg.ToolDir(), logger)
			controller := sweep.New(
				cfg,
				runconfig.NewBuilder(cfg.Tool.ConfigFile, logger),
				supervisor.New(launcherAdapter{launcher}, logger),
				archive.New(logger),
				store,
				source,
				sweepID,
				logger,
			)

			summary, err := controller.Run(ctx)
			if err != nil {
				return err
			}

			printSummary(cmd, sweepID, summary)
			if summary.AllFailed() {
				return fmt.Errorf("all %d combinations failed", summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip preflight checks before sweeping")
	return cmd
}

// launcherAdapter narrows the mibio launcher to the supervisor's seam.
type launcherAdapter struct {
	launcher *mibio.Launcher
}

func (a launcherAdapter) Start(ctx context.Context, args []string, logPath string) (int, error) {
	launch, err := a.launcher.Start(ctx, args, logPath)
	if err != nil {
		return 0, err
	}
	return launch.PID, nil
}

func fovSource(cfg *config.Config) (fov.Source, error) {
	switch cfg.Run.FOVSource {
	case "run_xml":
		return fov.RunXMLSource{Path: cfg.Run.RunXML}, nil
	case "static", "":
		return fov.StaticSource{Names: cfg.Run.FOVs}, nil
	default:
		return nil, fmt.Errorf("unknown fov_source %q", cfg.Run.FOVSource)
	}
}

func printPreflight(cmd *cobra.Command, checks []preflight.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, check := range checks {
		fmt.Fprintf(out, "  %-18s [%s] %s\n", check.Name+":", passFailLabel(check.Passed, colorize), check.Detail)
	}
}

func printSummary(cmd *cobra.Command, sweepID string, summary sweep.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sweep %s finished\n", sweepID)
	fmt.Fprintln(out, renderTable(
		[]string{"Total", "Done", "Failed", "Skipped"},
		[][]string{{
			strconv.Itoa(summary.Total),
			strconv.Itoa(summary.Done),
			strconv.Itoa(summary.Failed),
			strconv.Itoa(summary.Collisions),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	))
}

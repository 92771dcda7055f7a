// Package sweep drives a parameter sweep: for every threshold combination it
// rewrites the tool config, launches one TIFF generation run, waits for the
// artifact, and archives the outputs under a parameter-named directory.
package sweep

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mibisweep/internal/archive"
	"mibisweep/internal/config"
	"mibisweep/internal/fov"
	"mibisweep/internal/logging"
	"mibisweep/internal/results"
	"mibisweep/internal/runconfig"
	"mibisweep/internal/services"
	"mibisweep/internal/services/mibio"
	"mibisweep/internal/supervisor"
)

// ConfigBuilder rewrites the tool config for one combination.
type ConfigBuilder interface {
	Apply(p runconfig.Params) (string, error)
}

// JobRunner supervises one tool invocation through artifact detection.
type JobRunner interface {
	Run(ctx context.Context, job supervisor.Job) (*supervisor.Result, error)
}

// Archiver files a completed run's outputs.
type Archiver interface {
	Commit(ctx context.Context, rec archive.Record) error
}

// Recorder persists per-combination outcomes. Optional.
type Recorder interface {
	RecordRun(ctx context.Context, run results.Run) (int64, error)
}

// Summary totals the sweep's outcomes.
type Summary struct {
	Total      int
	Done       int
	Failed     int
	Collisions int
}

// AllFailed reports whether not a single combination produced an artifact.
// Skipped collisions do not count as failures.
func (s Summary) AllFailed() bool {
	return s.Total > 0 && s.Failed == s.Total
}

// Controller walks the combination grid for one acquisition.
type Controller struct {
	cfg      *config.Config
	builder  ConfigBuilder
	runner   JobRunner
	archiver Archiver
	recorder Recorder
	source   fov.Source
	logger   *slog.Logger
	sweepID  string
}

// New constructs a sweep controller. recorder may be nil.
func New(cfg *config.Config, builder ConfigBuilder, runner JobRunner, archiver Archiver, recorder Recorder, source fov.Source, sweepID string, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		builder:  builder,
		runner:   runner,
		archiver: archiver,
		recorder: recorder,
		source:   source,
		logger:   logger,
		sweepID:  sweepID,
	}
}

// OutputDir derives where the tool writes its TIFFs for a run: a
// <stem>/<stem>_TIFF directory next to the acquisition XML.
func OutputDir(runXML string) string {
	stem := strings.TrimSuffix(filepath.Base(runXML), filepath.Ext(runXML))
	return filepath.Join(filepath.Dir(runXML), stem, stem+"_TIFF")
}

// EffectiveTimeout returns the supervisor timeout for a run: the configured
// value when set, otherwise scaled with the workload.
func EffectiveTimeout(cfg *config.Config, fovCount, methodCount int) time.Duration {
	if cfg.Supervisor.TimeoutSeconds > 0 {
		return time.Duration(cfg.Supervisor.TimeoutSeconds) * time.Second
	}
	seconds := config.DefaultSecondsPerFOV * fovCount
	if methodCount > 1 {
		seconds += config.DefaultSecondsPerExtraMeth * (methodCount - 1)
	}
	return time.Duration(seconds) * time.Second
}

// Run walks every combination. Collisions (an archive directory or stale
// artifact already present) are skipped, other failures are recorded and the
// sweep moves on. The returned summary is valid even when err is non-nil only
// for context cancellation.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	ctx = services.WithSweepID(ctx, c.sweepID)
	logger := logging.WithContext(ctx, c.logger)

	fovs, err := c.source.Resolve(ctx)
	if err != nil {
		return Summary{}, err
	}

	combos, err := Combinations(c.cfg)
	if err != nil {
		return Summary{}, err
	}

	outputDir := OutputDir(c.cfg.Run.RunXML)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "sweep", "prepare output dir", outputDir, err)
	}

	artifactName := fov.ArtifactName(fovs)
	timeout := EffectiveTimeout(c.cfg, len(fovs), len(c.cfg.Sweep.Methods))

	logger.Info("starting sweep",
		logging.String(logging.FieldComponent, "sweep"),
		logging.Int("combinations", len(combos)),
		logging.Int("fovs", len(fovs)),
		logging.Duration("timeout", timeout),
		logging.String("output_dir", outputDir))

	summary := Summary{Total: len(combos)}
	for i, combo := range combos {
		identifier := combo.Identifier(c.cfg.Run)
		comboCtx := services.WithCombination(ctx, identifier)
		comboLogger := logging.WithContext(comboCtx, c.logger)

		comboLogger.Info("running combination",
			logging.String(logging.FieldComponent, "sweep"),
			logging.Int("index", i+1),
			logging.Int("total", len(combos)))

		outcome, runErr := c.runCombination(comboCtx, combo, identifier, fovs, outputDir, artifactName, timeout)
		switch {
		case runErr == nil:
			summary.Done++
		case errors.Is(runErr, services.ErrCollision):
			summary.Collisions++
			comboLogger.Warn("combination skipped",
				logging.String(logging.FieldComponent, "sweep"),
				logging.Error(runErr))
		case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
			return summary, runErr
		default:
			summary.Failed++
			comboLogger.Error("combination failed",
				logging.String(logging.FieldComponent, "sweep"),
				logging.Error(runErr))
		}

		c.record(comboCtx, combo, identifier, outcome, runErr)
	}

	logger.Info("sweep finished",
		logging.String(logging.FieldComponent, "sweep"),
		logging.Int("done", summary.Done),
		logging.Int("failed", summary.Failed),
		logging.Int("collisions", summary.Collisions))
	return summary, nil
}

func (c *Controller) runCombination(ctx context.Context, combo Combination, identifier string, fovs []fov.FOV, outputDir, artifactName string, timeout time.Duration) (*supervisor.Result, error) {
	archiveDir := filepath.Join(outputDir, identifier)
	if _, err := os.Stat(archiveDir); err == nil {
		return nil, services.Wrap(services.ErrCollision, "sweep", "run combination",
			"archive directory already exists: "+archiveDir, nil)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, services.Wrap(services.ErrExternalTool, "sweep", "run combination", "stat archive directory", err)
	}

	if _, err := c.builder.Apply(combo.Params(c.cfg.Run)); err != nil {
		return nil, err
	}

	args, err := mibio.GenerateTIFFArgs(mibio.GenerateTIFFRequest{
		RunXML:          c.cfg.Run.RunXML,
		PanelCSV:        c.cfg.Run.PanelCSV,
		FOVSize:         c.cfg.Run.FOVSize,
		FOVs:            fovs,
		RemoveSlideBG:   combo.RemoveSlideBG,
		RecalibrateMass: c.cfg.Run.RecalibrateMass,
	})
	if err != nil {
		return nil, err
	}

	jobLog := filepath.Join(outputDir, "out.launch_mibio.log")
	result, err := c.runner.Run(ctx, supervisor.Job{
		Args:         args,
		ArtifactPath: filepath.Join(outputDir, artifactName),
		LogPath:      jobLog,
		Timeout:      timeout,
		Trials:       c.cfg.Supervisor.Trials,
	})
	if err != nil {
		return nil, err
	}

	if err := c.archiver.Commit(ctx, archive.Record{
		DestinationDir: archiveDir,
		ArtifactPath:   filepath.Join(outputDir, artifactName),
		JobLogPath:     jobLog,
		ConfigPath:     c.cfg.Tool.ConfigFile,
		ToolLogPath:    c.cfg.Tool.LogFile,
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Controller) record(ctx context.Context, combo Combination, identifier string, result *supervisor.Result, runErr error) {
	if c.recorder == nil {
		return
	}

	run := results.Run{
		SweepID:         c.sweepID,
		Identifier:      identifier,
		Methods:         combo.MethodsLabel(),
		EventsThreshold: combo.threshold(runconfig.MethodEvents, combo.EventsThreshold),
		AuThreshold:     combo.threshold(runconfig.MethodAu, combo.AuThreshold),
		TaThreshold:     combo.threshold(runconfig.MethodTa, combo.TaThreshold),
		Status:          results.StatusDone,
	}
	switch {
	case runErr == nil:
		run.ArtifactSize = result.ArtifactSize
		run.Duration = result.Duration
		run.ArtifactPath = filepath.Join(OutputDir(c.cfg.Run.RunXML), identifier)
	case errors.Is(runErr, services.ErrCollision):
		run.Status = results.StatusCollision
		run.Error = runErr.Error()
	default:
		run.Status = results.StatusFailed
		run.Error = runErr.Error()
	}

	if _, err := c.recorder.RecordRun(ctx, run); err != nil {
		logging.WithContext(ctx, c.logger).Warn("could not record run outcome",
			logging.String(logging.FieldComponent, "sweep"),
			logging.Error(err))
	}
}

var (
	_ ConfigBuilder = (*runconfig.Builder)(nil)
	_ JobRunner     = (*supervisor.Supervisor)(nil)
	_ Archiver      = (*archive.Archiver)(nil)
	_ Recorder      = (*results.Store)(nil)
)

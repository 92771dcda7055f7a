// Package supervisor launches a tool job and decides whether it produced its
// artifact. The tool offers no completion signal, so the supervisor sleeps
// through the expected runtime and then probes the filesystem.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mibisweep/internal/fileutil"
	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

// Job describes one supervised tool invocation.
type Job struct {
	Args         []string
	ArtifactPath string
	LogPath      string
	Timeout      time.Duration
	Trials       int
}

// Launcher starts the tool process for a job and returns its pid.
type Launcher interface {
	Start(ctx context.Context, args []string, logPath string) (int, error)
}

// Result reports the outcome of a supervised job.
type Result struct {
	ArtifactSize int64
	Duration     time.Duration
}

// Supervisor drives one job from launch through artifact detection.
type Supervisor struct {
	launcher Launcher
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithSleep injects the sleep function (primarily for tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Supervisor) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New constructs a supervisor around the given launcher.
func New(launcher Launcher, logger *slog.Logger, opts ...Option) *Supervisor {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Supervisor{launcher: launcher, logger: logger, sleep: sleepContext}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run launches the job and waits for its artifact.
//
// The artifact path must not exist before launch: a pre-existing file would
// make completion detection report instantly on stale output, so the run is
// refused with ErrCollision instead. After launch the supervisor sleeps for
// the full timeout, then probes in trials rounds spaced a tenth of the
// timeout apart. The first sighting is followed by one more stabilisation
// sleep of the same length before the size is read, since the tool may still
// be flushing the file.
func (s *Supervisor) Run(ctx context.Context, job Job) (*Result, error) {
	if job.Trials <= 0 {
		job.Trials = 1
	}
	if job.Timeout <= 0 {
		return nil, services.Wrap(services.ErrValidation, "supervisor", "run", "timeout must be positive", nil)
	}

	if size, err := fileutil.FileSize(job.ArtifactPath); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "supervisor", "probe artifact", job.ArtifactPath, err)
	} else if size >= 0 {
		return nil, services.Wrap(services.ErrCollision, "supervisor", "run",
			fmt.Sprintf("artifact already exists: %s", job.ArtifactPath), nil)
	}

	start := time.Now()
	pid, err := s.launcher.Start(ctx, job.Args, job.LogPath)
	if err != nil {
		return nil, err
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("waiting for tool",
		logging.String(logging.FieldComponent, "supervisor"),
		logging.Int("pid", pid),
		logging.Duration("timeout", job.Timeout))

	if err := s.sleep(ctx, job.Timeout); err != nil {
		return nil, err
	}

	probeInterval := job.Timeout / 10
	found := false
	for trial := 0; trial < job.Trials; trial++ {
		size, err := fileutil.FileSize(job.ArtifactPath)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "supervisor", "probe artifact", job.ArtifactPath, err)
		}
		if size >= 0 {
			found = true
			break
		}
		logger.Debug("artifact not present yet",
			logging.String(logging.FieldComponent, "supervisor"),
			logging.Int("trial", trial+1),
			logging.Int("trials", job.Trials))
		if err := s.sleep(ctx, probeInterval); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, services.Wrap(services.ErrTimeout, "supervisor", "run",
			fmt.Sprintf("no artifact after %s and %d trials: %s", job.Timeout, job.Trials, job.ArtifactPath), nil)
	}

	// Let the tool finish flushing before trusting the size.
	if err := s.sleep(ctx, probeInterval); err != nil {
		return nil, err
	}

	size, err := fileutil.FileSize(job.ArtifactPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "supervisor", "probe artifact", job.ArtifactPath, err)
	}
	if size <= 0 {
		return nil, services.Wrap(services.ErrExternalTool, "supervisor", "run",
			fmt.Sprintf("artifact is empty: %s", job.ArtifactPath), nil)
	}

	result := &Result{ArtifactSize: size, Duration: time.Since(start)}
	logger.Info("artifact ready",
		logging.String(logging.FieldComponent, "supervisor"),
		logging.String("artifact", job.ArtifactPath),
		logging.Int64("size_bytes", size),
		logging.Duration("elapsed", result.Duration))
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

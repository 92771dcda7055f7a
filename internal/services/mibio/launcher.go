package mibio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

var commandContext = exec.CommandContext

// Launch describes a started tool process. The process runs detached from the
// caller; completion is detected by watching for the output artifact, not by
// waiting on the child.
type Launch struct {
	PID       int
	LogPath   string
	StartedAt time.Time
}

// Launcher starts the GUI tool headlessly from its install directory.
type Launcher struct {
	binary  string
	workDir string
	logger  *slog.Logger
}

// NewLauncher builds a launcher for the given tool binary. The tool resolves
// helper files relative to its own directory, so every launch runs with the
// working directory set to workDir.
func NewLauncher(binary, workDir string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Launcher{binary: binary, workDir: workDir, logger: logger}
}

// Start launches the tool with the given arguments and returns immediately.
// Combined stdout and stderr stream into logPath, preceded by a small header
// recording the working directory and command line. The child is reaped in
// the background; its exit status is logged and otherwise ignored, since the
// GUI tool exits unpredictably after writing its output.
func (l *Launcher) Start(ctx context.Context, args []string, logPath string) (*Launch, error) {
	if strings.TrimSpace(l.binary) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mibio", "launch", "tool binary not configured", nil)
	}

	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "mibio", "launch", "open job log", err)
	}

	fmt.Fprintf(logFile, "cd %s\n", l.workDir)
	fmt.Fprintf(logFile, "%s %s\n", l.binary, strings.Join(args, " "))

	cmd := commandContext(ctx, l.binary, args...) //nolint:gosec
	cmd.Dir = l.workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, services.Wrap(services.ErrExternalTool, "mibio", "launch", "start "+filepath.Base(l.binary), err)
	}

	launch := &Launch{PID: cmd.Process.Pid, LogPath: logPath, StartedAt: time.Now()}
	fmt.Fprintf(logFile, "pid %d\n", launch.PID)

	logger := l.logger
	go func() {
		err := cmd.Wait()
		logFile.Close()
		if err != nil {
			logger.Debug("tool process exited",
				logging.String(logging.FieldComponent, "mibio"),
				logging.Int("pid", launch.PID),
				logging.Error(err))
			return
		}
		logger.Debug("tool process exited",
			logging.String(logging.FieldComponent, "mibio"),
			logging.Int("pid", launch.PID))
	}()

	l.logger.Info("launched tool",
		logging.String(logging.FieldComponent, "mibio"),
		logging.Int("pid", launch.PID),
		logging.String("log", logPath))
	return launch, nil
}

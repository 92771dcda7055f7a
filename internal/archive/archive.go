// Package archive files a completed run's outputs into a parameter-named
// subdirectory so successive sweep combinations never overwrite each other.
package archive

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"mibisweep/internal/fileutil"
	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

// Record names everything that belongs to one archived run.
type Record struct {
	// DestinationDir is the parameter-named subdirectory to create.
	DestinationDir string
	// ArtifactPath is the generated TIFF; moved into the archive.
	ArtifactPath string
	// JobLogPath is the captured launch output; moved into the archive.
	JobLogPath string
	// ConfigPath is the tool's run configuration JSON; copied, since the
	// tool keeps using it for the next combination.
	ConfigPath string
	// ToolLogPath is the tool's own rolling log; copied for provenance.
	// Empty when the tool wrote no log.
	ToolLogPath string
}

// Archiver commits run outputs to their archive directories.
type Archiver struct {
	logger *slog.Logger
}

// New constructs an archiver.
func New(logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Archiver{logger: logger}
}

// Commit creates the destination directory and files the run's outputs into
// it. The directory must not already exist; a pre-existing directory means a
// previous run with the same parameters and the commit is refused before
// anything moves. The artifact and job log move; the config and tool log are
// copied.
func (a *Archiver) Commit(ctx context.Context, rec Record) error {
	if err := os.Mkdir(rec.DestinationDir, 0o755); err != nil {
		if os.IsExist(err) {
			return services.Wrap(services.ErrCollision, "archive", "commit",
				"archive directory already exists: "+rec.DestinationDir, nil)
		}
		return services.Wrap(services.ErrExternalTool, "archive", "commit", "create archive directory", err)
	}

	if err := fileutil.MoveFile(rec.ArtifactPath, filepath.Join(rec.DestinationDir, filepath.Base(rec.ArtifactPath))); err != nil {
		return services.Wrap(services.ErrExternalTool, "archive", "commit", "move artifact", err)
	}
	if rec.JobLogPath != "" {
		if err := fileutil.MoveFile(rec.JobLogPath, filepath.Join(rec.DestinationDir, filepath.Base(rec.JobLogPath))); err != nil {
			return services.Wrap(services.ErrExternalTool, "archive", "commit", "move job log", err)
		}
	}
	if rec.ConfigPath != "" {
		if err := fileutil.CopyFile(rec.ConfigPath, filepath.Join(rec.DestinationDir, filepath.Base(rec.ConfigPath))); err != nil {
			return services.Wrap(services.ErrExternalTool, "archive", "commit", "copy run config", err)
		}
	}
	if rec.ToolLogPath != "" {
		if size, err := fileutil.FileSize(rec.ToolLogPath); err == nil && size >= 0 {
			if err := fileutil.CopyFile(rec.ToolLogPath, filepath.Join(rec.DestinationDir, filepath.Base(rec.ToolLogPath))); err != nil {
				return services.Wrap(services.ErrExternalTool, "archive", "commit", "copy tool log", err)
			}
		}
	}

	logging.WithContext(ctx, a.logger).Info("archived run outputs",
		logging.String(logging.FieldComponent, "archive"),
		logging.String("dir", rec.DestinationDir))
	return nil
}

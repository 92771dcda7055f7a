// Package linker symlinks a run's acquired slide images into one review
// directory, so every field of view can be eyeballed without digging through
// the instrument's nested folder layout.
package linker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

// The instrument stores one image per point at a fixed depth in the run tree.
const imageRelPath = "RowNumber0/Depth_Profile0/Depth0/Image.bmp"

// Linker collects run images into a review directory.
type Linker struct {
	logger *slog.Logger
}

// New constructs a linker.
func New(logger *slog.Logger) *Linker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Linker{logger: logger}
}

// Link walks the run data directory for Point* subdirectories and symlinks
// each point's slide image into reviewDir as Image_<point>.bmp. An
// input_cmd.txt file recording the source directory is written alongside the
// links. Points without an image are skipped. Returns the number of links
// created.
func (l *Linker) Link(ctx context.Context, runDataDir, reviewDir string) (int, error) {
	entries, err := os.ReadDir(runDataDir)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "linker", "read run data dir", runDataDir, err)
	}

	var points []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "Point") {
			points = append(points, entry.Name())
		}
	}
	if len(points) == 0 {
		return 0, services.Wrap(services.ErrConfiguration, "linker", "link",
			"no Point directories under "+runDataDir, nil)
	}
	sort.Strings(points)

	if err := os.MkdirAll(reviewDir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "linker", "create review dir", reviewDir, err)
	}

	logger := logging.WithContext(ctx, l.logger)
	linked := 0
	for _, point := range points {
		if err := ctx.Err(); err != nil {
			return linked, err
		}

		source := filepath.Join(runDataDir, point, filepath.FromSlash(imageRelPath))
		if _, err := os.Stat(source); err != nil {
			logger.Warn("point has no slide image",
				logging.String(logging.FieldComponent, "linker"),
				logging.String("point", point))
			continue
		}

		target := filepath.Join(reviewDir, fmt.Sprintf("Image_%s.bmp", strings.ToLower(point[:1])+point[1:]))
		if err := os.Symlink(source, target); err != nil {
			if os.IsExist(err) {
				return linked, services.Wrap(services.ErrCollision, "linker", "link",
					"review link already exists: "+target, nil)
			}
			return linked, services.Wrap(services.ErrConfiguration, "linker", "link", target, err)
		}
		linked++
	}

	if err := writeProvenance(reviewDir, runDataDir); err != nil {
		return linked, err
	}

	logger.Info("linked run images",
		logging.String(logging.FieldComponent, "linker"),
		logging.Int("linked", linked),
		logging.String("review_dir", reviewDir))
	return linked, nil
}

// writeProvenance records where the links point, so a review directory can be
// traced back to its run.
func writeProvenance(reviewDir, runDataDir string) error {
	path := filepath.Join(reviewDir, "input_cmd.txt")
	body := fmt.Sprintf("source: %s\nlinked: %s\n", runDataDir, time.Now().UTC().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, "linker", "write provenance", path, err)
	}
	return nil
}

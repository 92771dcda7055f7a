package visualize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mibisweep/internal/fov"
	"mibisweep/internal/imaging"
	"mibisweep/internal/logging"
	"mibisweep/internal/services"
)

// readChannels is swapped out in tests.
var readChannels = imaging.ReadChannels

// Options locates the TIFFs to extract and where the PNGs go.
type Options struct {
	// TIFFDir holds the generated multiplexed TIFFs.
	TIFFDir string
	// FOVListCSV names the fields of view to extract ("FOV Name" column).
	FOVListCSV string
	// OutputRoot is where the PNGs directory is created. Defaults to TIFFDir.
	OutputRoot string
}

// Extractor renders per-channel PNGs for every FOV in a list.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor constructs an extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract reads the FOV list and renders one PNG per channel per FOV under
// <output root>/PNGs/<fov>/. The PNGs directory must not already exist:
// mixing freshly extracted images into a previous extraction would make the
// set ambiguous. Returns the number of PNGs written.
func (e *Extractor) Extract(ctx context.Context, opts Options) (int, error) {
	fovs, err := fov.ReadCSVList(opts.FOVListCSV)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "visualize", "read fov list", opts.FOVListCSV, err)
	}

	outputRoot := opts.OutputRoot
	if outputRoot == "" {
		outputRoot = opts.TIFFDir
	}
	pngRoot := filepath.Join(outputRoot, "PNGs")
	if err := os.Mkdir(pngRoot, 0o755); err != nil {
		if os.IsExist(err) {
			return 0, services.Wrap(services.ErrCollision, "visualize", "extract",
				"PNG directory already exists: "+pngRoot, nil)
		}
		return 0, services.Wrap(services.ErrConfiguration, "visualize", "extract", "create PNG directory", err)
	}

	written := 0
	for _, field := range fovs {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		tiffPath, err := locateTIFF(opts.TIFFDir, field.Name)
		if err != nil {
			return written, err
		}
		channels, err := readChannels(tiffPath)
		if err != nil {
			return written, err
		}

		fovDir := filepath.Join(pngRoot, field.Name)
		if err := os.Mkdir(fovDir, 0o755); err != nil {
			return written, services.Wrap(services.ErrConfiguration, "visualize", "extract", "create FOV directory", err)
		}

		for _, channel := range channels {
			outPath := filepath.Join(fovDir, fmt.Sprintf("%s_%s.png", field.Name, channel.Label()))
			if err := Render(channel, field.Name, outPath); err != nil {
				return written, services.Wrap(services.ErrValidation, "visualize", "render", outPath, err)
			}
			written++
		}

		e.logger.Info("extracted FOV",
			logging.String(logging.FieldComponent, "visualize"),
			logging.String("fov", field.Name),
			logging.Int("channels", len(channels)))
	}
	return written, nil
}

// locateTIFF finds the multiplexed TIFF for a field of view: either named
// after the FOV directly or after its point prefix the way the generator
// names sweep artifacts.
func locateTIFF(dir, fovName string) (string, error) {
	candidates := []string{
		filepath.Join(dir, fovName+".tiff"),
		filepath.Join(dir, fov.ArtifactName([]fov.FOV{{Name: fovName}})),
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "visualize", "locate tiff",
		fmt.Sprintf("no TIFF for %s in %s", fovName, dir), nil)
}

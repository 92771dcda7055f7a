package mibio

import (
	"strconv"
	"strings"

	"mibisweep/internal/fov"
	"mibisweep/internal/services"
)

// GenerateTIFFRequest describes one invocation of the tool's generate_tiff
// command.
type GenerateTIFFRequest struct {
	RunXML          string
	PanelCSV        string
	FOVSize         int
	FOVs            []fov.FOV
	RemoveSlideBG   bool
	RecalibrateMass bool
}

// GenerateTIFFArgs assembles the argument vector for a generate_tiff launch.
// Positional arguments come first and in fixed order; flag values use the
// tool's Python-style True/False capitalisation.
func GenerateTIFFArgs(req GenerateTIFFRequest) ([]string, error) {
	if strings.TrimSpace(req.RunXML) == "" {
		return nil, services.Wrap(services.ErrValidation, "mibio", "assemble args", "run xml path required", nil)
	}
	if strings.TrimSpace(req.PanelCSV) == "" {
		return nil, services.Wrap(services.ErrValidation, "mibio", "assemble args", "panel csv path required", nil)
	}
	if req.FOVSize <= 0 {
		return nil, services.Wrap(services.ErrValidation, "mibio", "assemble args", "fov size must be positive", nil)
	}
	if len(req.FOVs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "mibio", "assemble args", "at least one field of view required", nil)
	}

	args := []string{
		"generate_tiff",
		req.RunXML,
		req.PanelCSV,
		strconv.Itoa(req.FOVSize),
		"--fovs", fov.Selector(req.FOVs),
		"--remove_slide_background", pythonBool(req.RemoveSlideBG),
		"--mass_recal", pythonBool(req.RecalibrateMass),
	}
	return args, nil
}

func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

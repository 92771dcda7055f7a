package fov

import (
	"context"
	"strings"

	"mibisweep/internal/services"
)

// FOV identifies one imaged region on a sample.
type FOV struct {
	Name string
}

// Source resolves the list of fields of view for a run. The sweep script
// historically existed in two near-identical variants differing only in where
// the FOV list came from; both live behind this interface now.
type Source interface {
	Resolve(ctx context.Context) ([]FOV, error)
}

// StaticSource returns a fixed selector list, typically from configuration.
type StaticSource struct {
	Names []string
}

func (s StaticSource) Resolve(_ context.Context) ([]FOV, error) {
	if len(s.Names) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "fov", "resolve",
			"no fields of view configured (set run.fovs or run.fov_source = \"run_xml\")", nil)
	}
	fovs := make([]FOV, 0, len(s.Names))
	for _, name := range s.Names {
		fovs = append(fovs, FOV{Name: name})
	}
	return fovs, nil
}

// Selector renders the FOV list as the selector string passed to the tool's
// --fovs flag.
func Selector(fovs []FOV) string {
	names := make([]string, 0, len(fovs))
	for _, f := range fovs {
		names = append(names, f.Name)
	}
	return strings.Join(names, ",")
}

// ArtifactName derives the tool's output TIFF file name for a run from its
// first field of view. The tool names the artifact after the point prefix:
// everything before the first underscore or dash.
func ArtifactName(fovs []FOV) string {
	if len(fovs) == 0 {
		return ""
	}
	prefix := fovs[0].Name
	prefix = strings.SplitN(prefix, "_", 2)[0]
	prefix = strings.SplitN(prefix, "-", 2)[0]
	return prefix + "_RowNumber0_Depth_Profile0.tiff"
}

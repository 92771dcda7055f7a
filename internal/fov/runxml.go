package fov

import (
	"context"
	"encoding/xml"
	"os"

	"mibisweep/internal/services"
)

// RunXMLSource parses point names out of the acquisition XML that drove the
// run, so the sweep works from the same FOV list the instrument used.
type RunXMLSource struct {
	Path string
}

type runDocument struct {
	Points []runPoint `xml:"Point"`
}

type runPoint struct {
	Name string `xml:"name,attr"`
	// Older acquisition files carry the name as a child element instead.
	PointName string `xml:"PointName"`
}

func (s RunXMLSource) Resolve(_ context.Context) ([]FOV, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fov", "read run xml", s.Path, err)
	}

	var doc runDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fov", "parse run xml", s.Path, err)
	}

	fovs := make([]FOV, 0, len(doc.Points))
	for _, point := range doc.Points {
		name := point.Name
		if name == "" {
			name = point.PointName
		}
		if name == "" {
			continue
		}
		fovs = append(fovs, FOV{Name: name})
	}
	if len(fovs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "fov", "parse run xml",
			"no points found in "+s.Path, nil)
	}
	return fovs, nil
}

// Package visualize renders per-channel PNG heatmaps from the generator's
// multiplexed TIFFs so a sweep's output can be reviewed side by side.
package visualize

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"mibisweep/internal/imaging"
)

const (
	// brightenQuantile caps the colour scale at a high percentile so a few
	// hot pixels do not wash out the rest of the image.
	brightenQuantile = 0.99

	plotSize = 6 * vg.Inch
)

// channelGrid adapts a decoded channel to the heat map's grid interface.
// TIFF rows run top to bottom; plot rows run bottom to top.
type channelGrid struct {
	channel imaging.Channel
	max     float64
}

func (g channelGrid) Dims() (int, int) { return g.channel.Width, g.channel.Height }

func (g channelGrid) X(c int) float64 { return float64(c) }

func (g channelGrid) Y(r int) float64 { return float64(r) }

func (g channelGrid) Z(c, r int) float64 {
	row := g.channel.Height - 1 - r
	v := g.channel.Data[row*g.channel.Width+c]
	if v > g.max {
		return g.max
	}
	return v
}

// Render writes one channel as a PNG heatmap. The title carries the FOV, the
// channel identity, and the total counts so images can be compared at a
// glance.
func Render(channel imaging.Channel, fovName, outPath string) error {
	if len(channel.Data) != channel.Width*channel.Height {
		return fmt.Errorf("channel %s: %d pixels for %dx%d",
			channel.Label(), len(channel.Data), channel.Width, channel.Height)
	}

	sorted := make([]float64, len(channel.Data))
	copy(sorted, channel.Data)
	sort.Float64s(sorted)
	max := stat.Quantile(brightenQuantile, stat.Empirical, sorted, nil)
	if max <= 0 {
		max = 1
	}

	grid := channelGrid{channel: channel, max: max}
	heatmap := plotter.NewHeatMap(grid, palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%g, '%s') counts %.2e",
		fovName, channel.Mass, channel.Target, floats.Sum(channel.Data))
	p.HideAxes()
	p.Add(heatmap)

	if err := p.Save(plotSize, plotSize, outPath); err != nil {
		return fmt.Errorf("save heatmap %s: %w", outPath, err)
	}
	return nil
}

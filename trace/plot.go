package trace

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotPNG renders one line per label against time and writes a PNG to path.
// It exists purely as a debug aid alongside WriteTable; nothing in solver or
// deck depends on it.
func PlotPNG(path string, labels []string, samples []Sample, width, height vg.Length) error {
	if len(samples) == 0 {
		return fmt.Errorf("trace: no samples to plot")
	}
	p := plot.New()
	p.Title.Text = "pulsedeck trace"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"

	for col, label := range labels {
		pts := make(plotter.XYs, len(samples))
		for i, s := range samples {
			pts[i].X = s.Time
			pts[i].Y = s.Values[col]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trace: plot line for %q: %w", label, err)
		}
		line.Color = plotter.DefaultLineStyle.Color
		p.Add(line)
		p.Legend.Add(label, line)
	}

	if width == 0 {
		width = 8 * vg.Inch
	}
	if height == 0 {
		height = 4 * vg.Inch
	}
	return p.Save(width, height, path)
}

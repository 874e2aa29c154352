package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/cnmarch/internal/report"
)

// PlotOptions sizes the asciigraph output.
type PlotOptions struct {
	Width  int
	Height int
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Width <= 0 {
		o.Width = 80
	}
	if o.Height <= 0 {
		o.Height = 12
	}
	return o
}

// ProfilePlot overlays the numerical and analytical profiles of one
// comparison.
func ProfilePlot(c report.Comparison, opts PlotOptions) string {
	opts = opts.withDefaults()
	return asciigraph.PlotMany(
		[][]float64{c.Numerical, c.Analytical},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(4),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
		asciigraph.SeriesLegends("numerical", "analytical"),
		asciigraph.Caption(fmt.Sprintf("u(y) at x=%.4g  L2=%.3e", c.X, c.L2)),
	)
}

// SeriesPlot draws a series against its index. With logScale the values are
// plotted as log10, with zeros clamped to 1e-300.
func SeriesPlot(s report.Series, caption string, logScale bool, opts PlotOptions) string {
	opts = opts.withDefaults()
	if s.Len() == 0 {
		return caption + ": no data"
	}

	values := s.Y
	if logScale {
		values = make([]float64, s.Len())
		for i, v := range s.Y {
			values[i] = math.Log10(math.Max(v, 1e-300))
		}
		caption = "log10 " + caption
	}

	return asciigraph.Plot(values,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(fmt.Sprintf("%s, x from %.4g to %.4g", caption, s.X[0], s.X[s.Len()-1])),
	)
}

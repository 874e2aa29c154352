// Package figures renders march results to PNG or SVG charts.
package figures

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/cnmarch/internal/report"
)

type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

const (
	defaultWidth  = 1024
	defaultHeight = 640

	// errorFloor keeps log10 finite for exact matches.
	errorFloor = 1e-300
)

// Figure names written by WriteAll, without extension.
const (
	NameProfiles  = "profiles_comparison"
	NameResiduals = "residual_vs_x"
	NameErrors    = "error_vs_x_all"
)

var palette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorGreen,
	chart.ColorOrange,
	drawing.ColorFromHex("8e44ad"),
	drawing.ColorFromHex("16a085"),
	drawing.ColorFromHex("7f8c8d"),
}

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case PNG, SVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown figure format %q (want png or svg)", s)
	}
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

// Profiles draws every compared snapshot against its analytical profile.
// Numerical profiles are solid, analytical ones dashed in the same colour.
func Profiles(w io.Writer, format Format, ys []float64, comps []report.Comparison) error {
	if len(comps) == 0 {
		return fmt.Errorf("no profiles to draw")
	}
	if len(ys) < 2 {
		return fmt.Errorf("need at least 2 cells to draw a profile, got %d", len(ys))
	}

	series := make([]chart.Series, 0, 2*len(comps))
	for i, c := range comps {
		color := palette[i%len(palette)]
		series = append(series,
			chart.ContinuousSeries{
				Name:    fmt.Sprintf("numerical x=%.4g", c.X),
				XValues: ys,
				YValues: c.Numerical,
				Style:   chart.Style{StrokeColor: color, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    fmt.Sprintf("analytical x=%.4g", c.X),
				XValues: ys,
				YValues: c.Analytical,
				Style: chart.Style{
					StrokeColor:     color,
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{6, 4},
				},
			},
		)
	}

	graph := newChart("Numerical vs analytical profiles", "y", "u", series)
	fixFlatRange(graph, comps)
	return graph.Render(format.provider(), w)
}

// Residuals draws log10 of the step-to-step change along x.
func Residuals(w io.Writer, format Format, res report.Series) error {
	return logSeries(w, format, "Step residual", "log10 ||u(n+1) - u(n)||", res)
}

// Errors draws log10 of the error against the analytical solution along x.
func Errors(w io.Writer, format Format, errs report.Series) error {
	return logSeries(w, format, "Error against analytical solution", "log10 L2 error", errs)
}

func logSeries(w io.Writer, format Format, title, yName string, s report.Series) error {
	if s.Len() < 2 {
		return fmt.Errorf("need at least 2 points to draw %q, got %d", title, s.Len())
	}

	ys := make([]float64, s.Len())
	for i, v := range s.Y {
		ys[i] = math.Log10(math.Max(v, errorFloor))
	}

	graph := newChart(title, "x", yName, []chart.Series{
		chart.ContinuousSeries{
			Name:    yName,
			XValues: s.X,
			YValues: ys,
			Style:   chart.Style{StrokeColor: palette[0], StrokeWidth: 2},
		},
	})
	if lo, hi := bounds(ys); lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return graph.Render(format.provider(), w)
}

func newChart(title, xName, yName string, series []chart.Series) *chart.Chart {
	graph := &chart.Chart{
		Title:  title,
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  xName,
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.3g", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.3g", v.(float64))
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph
}

func fixFlatRange(graph *chart.Chart, comps []report.Comparison) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range comps {
		l1, h1 := bounds(c.Numerical)
		l2, h2 := bounds(c.Analytical)
		lo = math.Min(lo, math.Min(l1, l2))
		hi = math.Max(hi, math.Max(h1, h2))
	}
	if lo == hi {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
}

func bounds(v []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// WriteAll renders the three standard figures into dir and returns the paths
// written.
func WriteAll(ctx context.Context, dir string, format Format, r *report.Reporter, comps []report.Comparison) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	errs, err := r.ErrorSeries(ctx)
	if err != nil {
		return nil, err
	}
	res := r.ResidualSeries()

	jobs := []struct {
		name   string
		render func(io.Writer) error
	}{
		{NameProfiles, func(w io.Writer) error { return Profiles(w, format, r.Centers(), comps) }},
		{NameResiduals, func(w io.Writer) error { return Residuals(w, format, res) }},
		{NameErrors, func(w io.Writer) error { return Errors(w, format, errs) }},
	}

	paths := make([]string, 0, len(jobs))
	for _, job := range jobs {
		path := filepath.Join(dir, job.name+"."+string(format))
		if err := writeFile(path, job.render); err != nil {
			return paths, fmt.Errorf("%s: %w", job.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

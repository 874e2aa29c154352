package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/experiment"
	"github.com/san-kum/cnmarch/internal/figures"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/report"
	"github.com/san-kum/cnmarch/internal/storage"
	"github.com/san-kum/cnmarch/internal/study"
	"github.com/san-kum/cnmarch/internal/viz"
)

// resolveConfig builds the configuration from a preset or file, then applies
// the flags the user set. It also returns a name for the run.
func resolveConfig(cmd *cobra.Command, fallbackPreset string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "custom"

	if preset == "" && configFile == "" {
		preset = fallbackPreset
	}
	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg, name = p, preset
	}

	// Load config file if specified (overrides preset)
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Grid.N = gridN
	}
	if flags.Changed("nx") {
		cfg.March.Nx = gridNx
	}
	if flags.Changed("x-max") {
		cfg.March.XMax = xMax
	}
	if flags.Changed("source") {
		cfg.Source = source
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("terms") {
		cfg.Terms = terms
	}
	if flags.Changed("targets") {
		cfg.Targets = targets
	}

	return cfg, name, cfg.Validate()
}

func seriesFor(cfg *config.Config) analytic.Series {
	return analytic.Series{Source: cfg.Source, Terms: cfg.Terms}
}

func runMarch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, name, err := resolveConfig(cmd, "")
	if err != nil {
		return err
	}
	if runName != "" {
		name = runName
	}

	format, err := figures.ParseFormat(figFormat)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("marching %s: N=%d Nx=%d x_max=%g S=%g solver=%s\n",
		name, cfg.Grid.N, cfg.March.Nx, cfg.March.XMax, cfg.Source, cfg.Solver)

	res, err := experiment.Execute(ctx, cfg, logger.With("run", name))
	if err != nil {
		return err
	}

	r, err := report.New(res.Grid, res.History, seriesFor(res.Config))
	if err != nil {
		return err
	}
	summary, err := r.Summary(res.Config.Targets)
	if err != nil {
		return err
	}

	runID, err := st.Save(storage.RunMetadata{
		Name:        name,
		Config:      res.Config,
		Solver:      res.Solver,
		ElapsedMs:   float64(res.Elapsed.Microseconds()) / 1000,
		Metrics:     res.History.Metrics,
		Comparisons: summary.Comparisons,
	}, res.History)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("snapshots: %s, cell updates: %s, r = %.4g\n\n",
		humanize.Comma(int64(summary.Snapshots)),
		humanize.Comma(int64(res.Grid.N())*int64(res.Grid.Nx())),
		res.Grid.Ratio())
	if err := printComparisons(os.Stdout, summary.Comparisons); err != nil {
		return err
	}
	fmt.Printf("\nfinal L2 at x=%g: %.6e (grid L2 %.6e)\n", summary.FinalX, summary.FinalL2, summary.FinalGridL2)
	printMetrics(res.History.Metrics)

	if saveFigs {
		paths, err := figures.WriteAll(ctx, filepath.Join(st.RunDir(runID), "figures"), format, r, summary.Comparisons)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("wrote %s\n", p)
		}
	}
	return nil
}

func printComparisons(out io.Writer, comps []report.Comparison) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tX\tINDEX\tL2\tGRID_L2")
	for _, c := range comps {
		fmt.Fprintf(w, "%g\t%.6g\t%d\t%.6e\t%.6e\n", c.Target, c.X, c.Index, c.L2, c.GridL2)
	}
	return w.Flush()
}

func printMetrics(metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	fmt.Println("\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tN\tNX\tX_MAX\tSOURCE\tSOLVER\tELAPSED")

	for _, run := range runs {
		n, nx, xm, s := 0, 0, 0.0, 0.0
		if run.Config != nil {
			n, nx, xm, s = run.Config.Grid.N, run.Config.March.Nx, run.Config.March.XMax, run.Config.Source
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%g\t%s\t%.1fms\n",
			run.ID,
			humanize.Time(run.Timestamp),
			n, nx, xm, s,
			run.Solver,
			run.ElapsedMs,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("time: %s (%s)\n", meta.Timestamp.Format("2006-01-02 15:04:05"), humanize.Time(meta.Timestamp))
	fmt.Printf("solver: %s\n", meta.Solver)
	fmt.Printf("snapshots: %d\n", meta.Snapshots)
	if meta.Config != nil {
		fmt.Printf("grid: N=%d y=[%g, %g]  march: Nx=%d x_max=%g  source: %g\n\n",
			meta.Config.Grid.N, meta.Config.Grid.YMin, meta.Config.Grid.YMax,
			meta.Config.March.Nx, meta.Config.March.XMax, meta.Config.Source)
	}
	if err := printComparisons(os.Stdout, meta.Comparisons); err != nil {
		return err
	}
	printMetrics(meta.Metrics)
	return nil
}

// loadRun reads a stored run and rebuilds its reporter.
func loadRun(runID string) (*storage.RunMetadata, *fvm.History, *report.Reporter, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if meta.Config == nil {
		return nil, nil, nil, fmt.Errorf("%w: %s has no config", storage.ErrMalformed, runID)
	}
	hist, err := st.LoadHistory(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	grid, err := meta.Config.BuildGrid()
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := report.New(grid, hist, seriesFor(meta.Config))
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, hist, r, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, _, r, err := loadRun(args[0])
	if err != nil {
		return err
	}

	comps, err := r.Compare(meta.Config.Targets)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n\n", meta.ID)
	opts := viz.PlotOptions{Width: 80, Height: 10}
	for _, c := range comps {
		fmt.Println(viz.ProfilePlot(c, opts))
		fmt.Println()
	}

	fmt.Println(viz.SeriesPlot(r.ResidualSeries(), "residual", true, opts))
	fmt.Println()
	errs, err := r.ErrorSeries(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(viz.SeriesPlot(errs, "L2 error", true, opts))
	return nil
}

func writeFigures(cmd *cobra.Command, args []string) error {
	format, err := figures.ParseFormat(figFormat)
	if err != nil {
		return err
	}
	meta, _, r, err := loadRun(args[0])
	if err != nil {
		return err
	}
	comps, err := r.Compare(meta.Config.Targets)
	if err != nil {
		return err
	}

	dir := outputPath
	if dir == "" {
		dir = filepath.Join(storage.New(dataDir).RunDir(meta.ID), "figures")
	}
	paths, err := figures.WriteAll(cmd.Context(), dir, format, r, comps)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
	return nil
}

// openOutput returns stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	hist, err := storage.New(dataDir).LoadHistory(args[0])
	if err != nil {
		return err
	}
	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	if err := storage.WriteHistoryCSV(out, hist); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	hist, err := st.LoadHistory(args[0])
	if err != nil {
		return err
	}
	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(out, meta, hist); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func showModes(cmd *cobra.Command, args []string) error {
	_, hist, r, err := loadRun(args[0])
	if err != nil {
		return err
	}
	idx := modeIndex
	if idx < 0 {
		idx = hist.Len() - 1
	}
	modes, err := r.Modes(idx, modeCount)
	if err != nil {
		return err
	}

	fmt.Printf("snapshot %d, x = %g\n\n", idx, hist.X[idx])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tNUMERICAL\tANALYTICAL\tDIFF")
	for _, m := range modes {
		fmt.Fprintf(w, "%d\t%.6e\t%.6e\t%.3e\n", m.N, m.Numerical, m.Analytical, m.Numerical-m.Analytical)
	}
	return w.Flush()
}

func viewRun(cmd *cobra.Command, args []string) error {
	meta, hist, r, err := loadRun(args[0])
	if err != nil {
		return err
	}
	b, err := viz.NewBrowser(cmd.Context(), meta.Name, r, hist)
	if err != nil {
		return err
	}
	return viz.RunBrowser(b.WithTheme(themeName))
}

func refineGrid(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, "coarse")
	if err != nil {
		return err
	}

	fmt.Printf("refining %s: %d levels from N=%d Nx=%d\n\n", name, levels, cfg.Grid.N, cfg.March.Nx)
	lv, err := study.Refine(cmd.Context(), cfg, levels, refineX)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lv)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tNX\tR\tX\tGRID_L2\tRATIO\tORDER")
	for _, l := range lv {
		ratio, order := "-", "-"
		if l.Ratio != 0 {
			ratio, order = fmt.Sprintf("%.3f", l.Ratio), fmt.Sprintf("%.3f", l.Order)
		}
		fmt.Fprintf(w, "%d\t%d\t%.4g\t%g\t%.6e\t%s\t%s\n", l.N, l.Nx, l.R, l.X, l.GridL2, ratio, order)
	}
	return w.Flush()
}

func runStudy(cmd *cobra.Command, args []string) error {
	plan, err := study.LoadPlan(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("plan: %s (%d cases)\n", plan.Name, len(plan.Cases))
	if plan.Description != "" {
		fmt.Println(plan.Description)
	}
	fmt.Println()

	outcomes, runErr := study.RunPlan(cmd.Context(), plan, nil)

	st := storage.New(dataDir)
	if saveRuns {
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tN\tNX\tX_MAX\tSOURCE\tSOLVER\tFINAL_L2\tELAPSED\tRUN")
	for _, o := range outcomes {
		res := o.Result
		r, err := report.New(res.Grid, res.History, seriesFor(res.Config))
		if err != nil {
			return err
		}
		summary, err := r.Summary(res.Config.Targets)
		if err != nil {
			return err
		}

		runID := "-"
		if saveRuns {
			runID, err = st.Save(storage.RunMetadata{
				Name:        o.Case,
				Config:      res.Config,
				Solver:      res.Solver,
				ElapsedMs:   float64(res.Elapsed.Microseconds()) / 1000,
				Metrics:     res.History.Metrics,
				Comparisons: summary.Comparisons,
			}, res.History)
			if err != nil {
				return err
			}
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%s\t%.6e\t%v\t%s\n",
			o.Case, res.Config.Grid.N, res.Config.March.Nx, res.Config.March.XMax,
			res.Config.Source, res.Solver, summary.FinalL2, res.Elapsed, runID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tN\tNX\tX_MAX\tSOURCE\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%s\n",
			name, p.Grid.N, p.March.Nx, p.March.XMax, p.Source, config.DescribePreset(name))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nsolvers: %s\n", strings.Join(experiment.NewRegistry().ListSolvers(), ", "))
	return nil
}

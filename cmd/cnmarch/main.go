package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/logging"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	logger = slog.Default()

	// run, refine
	preset     string
	configFile string
	gridN      int
	gridNx     int
	xMax       float64
	source     float64
	solver     string
	terms      int
	targets    []float64
	saveFigs   bool
	figFormat  string
	runName    string
	levels     int
	refineX    float64
	outputPath string
	themeName  string
	jsonOut    bool
	saveRuns   bool
	modeCount  int
	modeIndex  int
)

// main registers the commands and exits with status 1 when the command fails.
func main() {
	defaults, err := config.ParseEnv()
	if err != nil {
		logger.Error("bad environment", "err", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "cnmarch",
		Short:         "Crank-Nicolson finite-volume marcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.New(logLevel, logFormat, os.Stderr)
			cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", defaults.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", defaults.LogFormat, "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "march a configuration and store the run",
		Args:  cobra.NoArgs,
		RunE:  runMarch,
	}
	addConfigFlags(runCmd, defaults.Preset)
	runCmd.Flags().StringVar(&solver, "solver", "", "linear solver (thomas, lu)")
	runCmd.Flags().IntVar(&terms, "terms", 0, "series terms for the analytical solution")
	runCmd.Flags().Float64SliceVar(&targets, "targets", nil, "x positions to compare at")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset)")
	runCmd.Flags().BoolVar(&saveFigs, "figures", false, "write figures into the run directory")
	runCmd.Flags().StringVar(&figFormat, "format", "png", "figure format (png, svg)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and comparisons",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot profiles and series in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	figuresCmd := &cobra.Command{
		Use:   "figures [run_id]",
		Short: "render profile, residual and error figures",
		Args:  cobra.ExactArgs(1),
		RunE:  writeFigures,
	}
	figuresCmd.Flags().StringVar(&figFormat, "format", "png", "figure format (png, svg)")
	figuresCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory (defaults to the run directory)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the snapshot history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (defaults to stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export metadata and history to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (defaults to stdout)")

	modesCmd := &cobra.Command{
		Use:   "modes [run_id]",
		Short: "compare sine-mode amplitudes of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  showModes,
	}
	modesCmd.Flags().IntVar(&modeCount, "count", 5, "number of modes")
	modesCmd.Flags().IntVar(&modeIndex, "index", -1, "snapshot index (defaults to the last)")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse the snapshots of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}
	viewCmd.Flags().StringVar(&themeName, "theme", "ocean", "color theme")

	refineCmd := &cobra.Command{
		Use:   "refine",
		Short: "grid refinement study at fixed r",
		Args:  cobra.NoArgs,
		RunE:  refineGrid,
	}
	addConfigFlags(refineCmd, defaults.Preset)
	refineCmd.Flags().IntVar(&levels, "levels", 3, "number of grids")
	refineCmd.Flags().Float64Var(&refineX, "x", 0, "x to compare at (defaults to x_max)")
	refineCmd.Flags().BoolVar(&jsonOut, "json", false, "print levels as JSON")

	studyCmd := &cobra.Command{
		Use:   "study [plan.yaml]",
		Short: "run every case of a plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runStudy,
	}
	studyCmd.Flags().BoolVar(&saveRuns, "save", false, "store each case as a run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets and solvers",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, figuresCmd, exportCSVCmd,
		exportJSONCmd, modesCmd, viewCmd, refineCmd, studyCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command, defaultPreset string) {
	cmd.Flags().StringVar(&preset, "preset", defaultPreset, "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().IntVar(&gridN, "n", 0, "number of cells in y")
	cmd.Flags().IntVar(&gridNx, "nx", 0, "number of marching steps")
	cmd.Flags().Float64Var(&xMax, "x-max", 0, "end of the march")
	cmd.Flags().Float64Var(&source, "source", 0, "source term S")
}

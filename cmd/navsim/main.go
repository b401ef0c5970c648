package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"navsim/internal/config"
	"navsim/internal/export"
	"navsim/internal/field"
	"navsim/internal/grid"
	"navsim/internal/metrics"
	"navsim/internal/poisson"
	"navsim/internal/sim"
	"navsim/internal/viz"
)

var (
	dataDir    string
	debug      bool
	configFile string
	preset     string

	nx, ny   int
	lx, ly   float64
	rho      float64
	nu       float64
	dt       float64
	steps    int
	tol      float64
	maxIters int
	strict   bool

	renderField string
	renderOut   string

	stepsPerFrame int
)

var logger *zap.Logger

// Process exit codes, one per session outcome.
const (
	exitOK            = 0
	exitError         = 1
	exitStepFailed    = 2
	exitCancelled     = 3
	exitInvalidConfig = 4
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "navsim",
		Short: "2D incompressible Navier-Stokes projection solver",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := zap.NewProductionConfig()
			if debug {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, _ = cfg.Build()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".navsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot centerline velocity profiles",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a field heatmap to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&renderField, "field", "speed", "field to render (pressure, u, v, speed)")
	renderCmd.Flags().StringVar(&renderOut, "out", "", "output path (defaults to <run_id>_<field>.png)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export stored fields to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export stored fields to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in configurations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark grid sizes",
		RunE:  benchGrids,
	}
	benchCmd.Flags().IntVar(&steps, "steps", 50, "steps per size")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 4, "simulation steps per frame")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, renderCmd, exportCSVCmd, exportJSONCmd, presetsCmd, benchCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in configuration name")
	cmd.Flags().IntVar(&nx, "nx", config.DefaultNx, "grid points along x")
	cmd.Flags().IntVar(&ny, "ny", config.DefaultNy, "grid points along y")
	cmd.Flags().Float64Var(&lx, "lx", config.DefaultLx, "domain length along x")
	cmd.Flags().Float64Var(&ly, "ly", config.DefaultLy, "domain length along y")
	cmd.Flags().Float64Var(&rho, "rho", config.DefaultRho, "density")
	cmd.Flags().Float64Var(&nu, "nu", config.DefaultNu, "kinematic viscosity")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of time steps")
	cmd.Flags().Float64Var(&tol, "tol", config.DefaultTolerance, "poisson relative tolerance")
	cmd.Flags().IntVar(&maxIters, "max-iters", config.DefaultMaxIters, "poisson iteration cap")
	cmd.Flags().BoolVar(&strict, "strict", false, "abort on poisson nonconvergence")
}

// resolveConfig layers preset under config file under explicit flags, the way
// the run command documents it: flags win.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %v)", preset, config.ListPresets())
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("nx") {
		cfg.Grid.Nx = nx
	}
	if cmd.Flags().Changed("ny") {
		cfg.Grid.Ny = ny
	}
	if cmd.Flags().Changed("lx") {
		cfg.Grid.Lx = lx
	}
	if cmd.Flags().Changed("ly") {
		cfg.Grid.Ly = ly
	}
	if cmd.Flags().Changed("rho") {
		cfg.Fluid.Rho = rho
	}
	if cmd.Flags().Changed("nu") {
		cfg.Fluid.Nu = nu
	}
	if cmd.Flags().Changed("dt") {
		cfg.Fluid.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("tol") {
		cfg.Poisson.Tolerance = tol
	}
	if cmd.Flags().Changed("max-iters") {
		cfg.Poisson.MaxIters = maxIters
	}
	if cmd.Flags().Changed("strict") {
		cfg.Poisson.Strict = strict
	}

	return cfg, cfg.Validate()
}

func buildSession(cfg *config.Config) (*sim.Session, error) {
	g, err := cfg.BuildGrid()
	if err != nil {
		return nil, err
	}
	fs, err := cfg.BuildFields(g)
	if err != nil {
		return nil, err
	}
	pol, err := cfg.BuildPolicy()
	if err != nil {
		return nil, err
	}
	session := sim.New(g, fs, pol, sim.Options{
		PoissonTolerance:     cfg.Poisson.Tolerance,
		PoissonMaxIterations: cfg.Poisson.MaxIters,
		StrictPoisson:        cfg.Poisson.Strict,
		Logger:               logger,
	})
	session.AddMetric(metrics.NewEnergy())
	session.AddMetric(metrics.NewPeakVelocity())
	session.AddMetric(metrics.NewDivergence())
	session.Initialize(cfg.InitialCondition())
	return session, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	session, err := buildSession(cfg)
	if err != nil {
		return err
	}

	st := export.NewStore(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("running %dx%d grid for %d steps...\n", cfg.Grid.Nx, cfg.Grid.Ny, cfg.Steps)
	start := time.Now()
	result, runErr := session.Advance(ctx, cfg.Steps)
	elapsed := time.Since(start)

	meta := export.RunMetadata{
		Rho:     cfg.Fluid.Rho,
		Nu:      cfg.Fluid.Nu,
		Dt:      cfg.Fluid.Dt,
		Steps:   session.Step(),
		Outcome: result.Outcome.String(),
		Metrics: result.Metrics,
	}
	runID, saveErr := st.Save(meta, session.Snapshot())
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed %d steps in %v (%s)\n", session.Step(), elapsed, result.Outcome)
	fmt.Printf("run id: %s\n", runID)
	if len(result.Reports) > 0 {
		last := result.Reports[len(result.Reports)-1]
		fmt.Printf("final poisson: %d iters, converged=%v\n", last.PoissonIterations, last.PoissonConverged)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := export.NewStore(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tGRID\tDT\tSTEPS\tOUTCOME")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%.4g\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Nx, run.Ny,
			run.Dt,
			run.Steps,
			run.Outcome,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := export.NewStore(dataDir)
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}

	// u along the vertical centerline, v along the horizontal centerline:
	// the standard cavity validation profiles.
	uProfile := make([]float64, snap.Ny)
	for j := 0; j < snap.Ny; j++ {
		uProfile[j] = snap.At(snap.U, snap.Nx/2, j)
	}
	vProfile := make([]float64, snap.Nx)
	for i := 0; i < snap.Nx; i++ {
		vProfile[i] = snap.At(snap.V, i, snap.Ny/2)
	}

	fmt.Println(asciigraph.Plot(uProfile,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("u along vertical centerline (bottom to top)"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(vProfile,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("v along horizontal centerline (left to right)"),
	))
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	st := export.NewStore(dataDir)
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	out := renderOut
	if out == "" {
		out = fmt.Sprintf("%s_%s.png", args[0], renderField)
	}
	if err := export.Heatmap(snap, renderField, out); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := export.NewStore(dataDir)
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, snap)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := export.NewStore(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	snap, err := st.LoadSnapshot(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, *meta, snap)
}

func benchGrids(cmd *cobra.Command, args []string) error {
	sizes := []int{21, 41, 81}

	fmt.Printf("benchmarking cavity flow, %d steps per size\n\n", steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tSTEPS\tTIME\tSTEPS/SEC\tAVG POISSON ITERS")

	for _, n := range sizes {
		cfg := config.DefaultConfig()
		cfg.Grid.Nx = n
		cfg.Grid.Ny = n
		cfg.Steps = steps

		session, err := buildSession(cfg)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := session.Advance(context.Background(), cfg.Steps)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		totalIters := 0
		for _, r := range result.Reports {
			totalIters += r.PoissonIterations
		}
		avgIters := 0.0
		if len(result.Reports) > 0 {
			avgIters = float64(totalIters) / float64(len(result.Reports))
		}

		fmt.Fprintf(w, "%dx%d\t%d\t%v\t%.0f\t%.1f\n",
			n, n, len(result.Reports), elapsed,
			float64(len(result.Reports))/elapsed.Seconds(), avgIters)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	session, err := buildSession(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(viz.NewModel(session, stepsPerFrame))
	_, err = p.Run()
	return err
}

// exitCode maps error taxonomy onto process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitCancelled
	case errors.Is(err, sim.ErrStepFailed):
		return exitStepFailed
	case errors.Is(err, grid.ErrInvalidGrid),
		errors.Is(err, field.ErrDimensionMismatch):
		return exitInvalidConfig
	case errors.Is(err, poisson.ErrNonconvergence):
		return exitError
	default:
		return exitError
	}
}

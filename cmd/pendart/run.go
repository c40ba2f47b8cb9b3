package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/experiment"
	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/observability"
	"github.com/san-kum/pendart/internal/storage"
)

var (
	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	kick       float64
	theta1     float64
	theta2     float64
	omega1     float64
	omega2     float64
	seed       uint64
	pngDir     string
	jsonOut    string
)

// addRunFlags registers the flags that describe a single run. Only flags the
// user sets override the config file and preset.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "run config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset starting pose ("+strings.Join(config.ListPresets(), ", ")+")")
	f.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	f.Float64Var(&duration, "time", config.DefaultDuration, "duration")
	f.StringVar(&integrator, "integrator", "rk4", "integrator")
	f.Float64Var(&kick, "kick", 0, "angular velocity added to the inner arm at start")
	f.Float64Var(&theta1, "theta1", config.DefaultTheta1, "inner arm angle")
	f.Float64Var(&theta2, "theta2", config.DefaultTheta2, "outer arm angle")
	f.Float64Var(&omega1, "omega1", 0, "inner arm angular velocity")
	f.Float64Var(&omega2, "omega2", 0, "outer arm angular velocity")
	f.Uint64Var(&seed, "seed", 1, "random seed for the spray")
}

// loadRunConfig layers defaults, the config file, the preset and finally the
// flags the user set. The palette setting fills in for a config file that
// leaves the palette at its default.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if settings != nil && settings.Palette != "" && cfg.Paint.Palette == config.DefaultConfig().Paint.Palette {
		cfg.Paint.Palette = settings.Palette
	}

	f := cmd.Flags()
	if preset != "" {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("kick") {
		cfg.Kick = kick
	}
	if f.Changed("theta1") {
		cfg.InitState.Theta1 = theta1
	}
	if f.Changed("theta2") {
		cfg.InitState.Theta2 = theta2
	}
	if f.Changed("omega1") {
		cfg.InitState.Omega1 = omega1
	}
	if f.Changed("omega2") {
		cfg.InitState.Omega2 = omega2
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is canceled on interrupt so long runs stop cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringVar(&pngDir, "png", "", "also write trace and energy PNGs to this directory")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "export-json [run_id]",
		Aliases: []string{"export"},
		Short:   "export a stored run as JSON",
		Args:    cobra.ExactArgs(1),
		RunE:    exportRun,
	}
	cmd.Flags().StringVarP(&jsonOut, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	st := storage.New(settings.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s ...\n", describe(cfg))
	start := time.Now()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("run ended early", zap.Error(runErr))
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Info(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for _, name := range []string{"energy", "energy_drift", "flips"} {
		if val, ok := result.Metrics[name]; ok {
			fmt.Printf("  %s: %.6g\n", name, val)
		}
	}
	if runErr != nil {
		fmt.Printf("\nstopped early: %v\n", runErr)
	}
	return nil
}

func describe(cfg *config.Config) string {
	name := cfg.Preset
	if name == "" {
		name = fmt.Sprintf("θ1=%.3g θ2=%.3g", cfg.InitState.Theta1, cfg.InitState.Theta2)
	}
	return fmt.Sprintf("%s with %s, dt=%g for %gs", name, cfg.Integrator, cfg.Dt, cfg.Duration)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(settings.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tDRIFT\tSTATUS")

	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		status := "ok"
		if run.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.2e\t%s\n",
			run.ID,
			preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.EnergyDrift,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	dp, err := models.NewDoublePendulum(meta.Params)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", len(states))

	series := []struct {
		caption string
		value   func(dynamo.State) float64
	}{
		{"theta1 (inner angle)", func(x dynamo.State) float64 { return x[models.Theta1] }},
		{"theta2 (outer angle)", func(x dynamo.State) float64 { return x[models.Theta2] }},
		{"omega1 (inner angular velocity)", func(x dynamo.State) float64 { return x[models.Omega1] }},
		{"omega2 (outer angular velocity)", func(x dynamo.State) float64 { return x[models.Omega2] }},
		{"total energy", dp.Energy},
	}

	for _, s := range series {
		data := make([]float64, len(states))
		for i, x := range states {
			data[i] = s.value(x)
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if pngDir == "" {
		return nil
	}

	trace, err := export.TracePlot(meta.Params, states)
	if err != nil {
		return err
	}
	tracePath := filepath.Join(pngDir, runID+"-trace.png")
	if err := export.SavePlotPNG(trace, 6, 6, tracePath); err != nil {
		return err
	}

	energy, err := export.EnergyPlot(dp, &dynamo.Result{States: states, Times: times})
	if err != nil {
		return err
	}
	energyPath := filepath.Join(pngDir, runID+"-energy.png")
	if err := export.SavePlotPNG(energy, 8, 4, energyPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", tracePath)
	fmt.Printf("wrote %s\n", energyPath)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(settings.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &dynamo.Result{
		States:      states,
		Times:       times,
		Metrics:     meta.Metrics,
		EnergyDrift: meta.EnergyDrift,
		StepsTaken:  meta.Steps,
	}
	if jsonOut != "" {
		return storage.ExportJSON(jsonOut, meta.RunInfo, result)
	}
	return storage.WriteJSON(os.Stdout, meta.RunInfo, result)
}

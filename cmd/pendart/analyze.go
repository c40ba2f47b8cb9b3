package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/analysis"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/observability"
	"github.com/san-kum/pendart/internal/sim"
	"github.com/san-kum/pendart/internal/sweep"
)

const (
	driftSteps   = 10000
	perturbation = 1e-8
	linearWindow = 2.0
)

var (
	mapOut      string
	poincarePNG string
	members     int
	spread      float64
	gridSize    int
	workers     int
	peaks       int
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "check the integrator against the linear limit and its own order",
		Args:  cobra.NoArgs,
		RunE:  checkRun,
	}
	addRunFlags(cmd)
	return cmd
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "compare integrators on energy drift",
		Args:  cobra.NoArgs,
		RunE:  compareIntegrators,
	}
	addRunFlags(cmd)
	return cmd
}

func newSpectrumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spectrum",
		Short: "dominant frequencies of the inner angle",
		Args:  cobra.NoArgs,
		RunE:  spectrumRun,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&peaks, "peaks", 3, "number of peaks to report")
	return cmd
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "ASCII phase portrait of two state variables",
		Args:  cobra.NoArgs,
		RunE:  phaseRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&xAxis, "x", "theta1", "horizontal axis (theta1, theta2, omega1, omega2)")
	cmd.Flags().StringVar(&yAxis, "y", "omega1", "vertical axis")
	return cmd
}

func newPoincareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poincare",
		Short: "Poincaré section at θ1 = 0 plotted in (θ2, ω2)",
		Args:  cobra.NoArgs,
		RunE:  poincareRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&poincarePNG, "png", "", "also write the section as a PNG")
	return cmd
}

func newEnsembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run nearby starting poses and plot how far apart they drift",
		Args:  cobra.NoArgs,
		RunE:  ensembleRun,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&members, "members", 8, "number of pendulums")
	cmd.Flags().Float64Var(&spread, "spread", 1e-6, "inner angle offset between neighbours")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	return cmd
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "render the flip-time map over all starting poses",
		Args:  cobra.NoArgs,
		RunE:  flipMap,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVarP(&mapOut, "out", "o", "flipmap.png", "output PNG")
	cmd.Flags().IntVar(&gridSize, "size", 200, "cells per side")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	return cmd
}

// analysisSetup resolves the model, integrator and starting state shared by
// the analysis commands.
func analysisSetup(cmd *cobra.Command) (*models.DoublePendulum, dynamo.Integrator, dynamo.State, float64, float64, error) {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	dp, err := models.NewDoublePendulum(cfg.Params)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	x0 := cfg.InitialState()
	x0[models.Omega1] += cfg.Kick
	return dp, integ, x0, cfg.Dt, cfg.Duration, nil
}

func checkRun(cmd *cobra.Command, args []string) error {
	dp, integ, x0, dt, dur, err := analysisSetup(cmd)
	if err != nil {
		return err
	}
	p := dp.Params()

	sol, err := analysis.NewLinearSolution(p, x0)
	if err != nil {
		return err
	}
	fmt.Println("normal modes:")
	for i, m := range sol.Modes() {
		fmt.Printf("  %d: ω=%.4f rad/s  T=%.4fs  shape=(%.3f, %.3f)\n",
			i+1, m.Omega, m.Period(), m.Shape[0], m.Shape[1])
	}
	fmt.Printf("  largest angle gap to the linear solution over %gs: %.3e rad\n",
		linearWindow, linearGap(dp, integ, sol, x0, dt))

	conv, err := analysis.StepDoubling(dp, integ, x0, dt, math.Min(dur, 1))
	if err != nil {
		return err
	}
	fmt.Printf("\nstep doubling (%s, dt=%g):\n", integ.Name(), dt)
	fmt.Printf("  coarse error: %.3e\n", conv.Coarse)
	fmt.Printf("  fine error:   %.3e\n", conv.Fine)
	fmt.Printf("  ratio:        %.3f\n", conv.Ratio())
	fmt.Printf("  order:        %.3f\n", conv.Order)

	drift, err := analysis.EnergyDrift(dp, integ, x0, dt, driftSteps)
	if err != nil {
		fmt.Printf("\nenergy drift over %d steps: diverged (%v)\n", driftSteps, err)
	} else {
		fmt.Printf("\nenergy drift over %d steps: %.3e\n", driftSteps, drift)
	}

	lambda := analysis.LyapunovExponent(dp, integ, x0, dt, dur, perturbation)
	fmt.Printf("largest Lyapunov exponent: %.4f 1/s\n", lambda)
	return nil
}

// linearGap integrates x0 for linearWindow seconds and returns the largest
// angle difference from the small-angle solution.
func linearGap(dp *models.DoublePendulum, integ dynamo.Integrator, sol *analysis.LinearSolution, x0 dynamo.State, dt float64) float64 {
	x := x0.Clone()
	gap := 0.0
	steps := int(math.Round(linearWindow / dt))
	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		x = integ.Step(dp, x, t, dt)
		if !x.IsValid() {
			return math.Inf(1)
		}
		lin := sol.At(t + dt)
		gap = math.Max(gap, math.Abs(x[models.Theta1]-lin[models.Theta1]))
		gap = math.Max(gap, math.Abs(x[models.Theta2]-lin[models.Theta2]))
	}
	return gap
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	dp, _, x0, dt, _, err := analysisSetup(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tDRIFT\tORDER\tTIME")

	for _, name := range integrators.Names() {
		integ, err := integrators.ByName(name)
		if err != nil {
			return err
		}

		start := time.Now()
		drift, err := analysis.EnergyDrift(dp, integ, x0, dt, driftSteps)
		elapsed := time.Since(start)
		driftText := fmt.Sprintf("%.3e", drift)
		if err != nil {
			driftText = "diverged"
		}

		orderText := "-"
		if conv, err := analysis.StepDoubling(dp, integ, x0, dt, 1); err == nil {
			orderText = fmt.Sprintf("%.2f", conv.Order)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", name, driftText, orderText, elapsed.Round(time.Microsecond))
	}

	return w.Flush()
}

// angleSeries integrates x0 and returns θ1 at every step.
func angleSeries(dp *models.DoublePendulum, integ dynamo.Integrator, x0 dynamo.State, dt, dur float64) ([]float64, error) {
	s := sim.New(dp, integ)
	s.SetLogger(observability.GetLogger())

	ctx, cancel := signalContext()
	defer cancel()

	result, err := s.Run(ctx, x0, dynamo.Config{Dt: dt, Duration: dur, RecordEvery: 1, ValidateState: true})
	if result == nil {
		return nil, err
	}
	if err != nil {
		observability.GetLogger().Warn("series cut short", zap.Error(err), zap.Int("samples", len(result.States)))
	}
	series := make([]float64, len(result.States))
	for i, x := range result.States {
		series[i] = x[models.Theta1]
	}
	return series, nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	dp, integ, x0, dt, dur, err := analysisSetup(cmd)
	if err != nil {
		return err
	}

	series, err := angleSeries(dp, integ, x0, dt, dur)
	if err != nil {
		return err
	}

	modes, err := analysis.NormalModes(dp.Params())
	if err != nil {
		return err
	}
	fmt.Printf("linear modes: %.4f Hz, %.4f Hz\n\n",
		modes[0].Omega/(2*math.Pi), modes[1].Omega/(2*math.Pi))

	found := analysis.DominantFrequencies(series, dt, peaks)
	if len(found) == 0 {
		fmt.Println("no peaks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tFREQ (Hz)\tPERIOD (s)\tPOWER")
	for i, pk := range found {
		fmt.Fprintf(w, "%d\t%.4f\t%.4f\t%.3e\n", i+1, pk.Freq, 1/pk.Freq, pk.Power)
	}
	return w.Flush()
}

func phaseRun(cmd *cobra.Command, args []string) error {
	xi, ok := axes[xAxis]
	if !ok {
		return fmt.Errorf("unknown axis %q", xAxis)
	}
	yi, ok := axes[yAxis]
	if !ok {
		return fmt.Errorf("unknown axis %q", yAxis)
	}

	dp, integ, x0, dt, dur, err := analysisSetup(cmd)
	if err != nil {
		return err
	}

	portrait := analysis.GeneratePhasePortrait(dp, integ, x0, xi, yi, dt, dur)
	fmt.Printf("%s vs %s, %d points\n\n", yAxis, xAxis, len(portrait.Points))
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 80, 30))
	return nil
}

func poincareRun(cmd *cobra.Command, args []string) error {
	dp, integ, x0, dt, dur, err := analysisSetup(cmd)
	if err != nil {
		return err
	}

	section := analysis.GeneratePoincareSection(dp, integ, x0,
		models.Theta1, 0, models.Theta2, models.Omega2, dt, dur)
	if section == nil || len(section.Points) == 0 {
		fmt.Println("no crossings recorded")
		return nil
	}

	fmt.Printf("%d crossings\n\n", len(section.Points))
	fmt.Println(analysis.PoincareSectionToASCII(section, 80, 24))

	if poincarePNG == "" {
		return nil
	}
	p, err := export.PoincarePlot(section, "θ2 (rad)", "ω2 (rad/s)")
	if err != nil {
		return err
	}
	if err := export.SavePlotPNG(p, 6, 6, poincarePNG); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", poincarePNG)
	return nil
}

func ensembleRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if members < 2 {
		return fmt.Errorf("need at least 2 members, got %d", members)
	}

	ctx, cancel := signalContext()
	defer cancel()

	x0 := cfg.InitialState()
	x0[models.Omega1] += cfg.Kick

	e := &sweep.Ensemble{Params: cfg.Params, Members: members, Spread: spread, Workers: workers}
	start := time.Now()
	runs, err := e.Run(ctx, x0, cfg.SimConfig())
	if err != nil {
		return err
	}

	div := sweep.Divergence(cfg.Params, runs)
	fmt.Printf("%d pendulums, spread %g rad, %v\n\n", members, spread, time.Since(start).Round(time.Millisecond))

	if len(div) > 1 {
		fmt.Println(asciigraph.Plot(div,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("largest outer bob separation (m)"),
		))
		fmt.Println()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OFFSET\tFLIPS\tDRIFT")
	for _, m := range runs {
		fmt.Fprintf(w, "%.2e\t%.0f\t%.2e\n", m.Offset, m.Result.Metrics["flips"], m.Result.EnergyDrift)
	}
	return w.Flush()
}

func flipMap(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	ctx, cancel := signalContext()
	defer cancel()

	opts := sweep.Options{
		Width:      gridSize,
		Height:     gridSize,
		Dt:         cfg.Dt,
		MaxTime:    cfg.Duration,
		Workers:    workers,
		Integrator: integ,
		Logger:     logger,
	}

	start := time.Now()
	m, err := sweep.FlipTimeMap(ctx, cfg.Params, opts)
	if err != nil {
		return err
	}
	logger.Info("flip map done",
		zap.Int("cells", m.Width*m.Height),
		zap.Duration("elapsed", time.Since(start)))

	if err := export.SaveImage(mapOut, m.Image()); err != nil {
		return err
	}

	fmt.Printf("flipped within %gs: %.1f%%\n", m.MaxTime, 100*m.Flipped())
	abs, _ := filepath.Abs(mapOut)
	fmt.Printf("wrote %s\n", abs)
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/pendart/internal/automation"
	"github.com/san-kum/pendart/internal/observability"
	"github.com/san-kum/pendart/internal/optim"
)

var (
	batchOut     string
	sweepParam   string
	sweepRange   string
	sweepSteps   int
	searchGrid   []string
	searchMetric string
	searchMax    bool
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted list of paintings and runs",
		Args:  cobra.ExactArgs(1),
		RunE:  batchRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVarP(&batchOut, "out", "o", "", "output directory (default <data>/paintings)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one pose across a range of a pendulum parameter",
		Args:  cobra.NoArgs,
		RunE:  sweepRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&sweepParam, "param", "l2", "parameter to vary (l1, l2, m1, m2, g)")
	cmd.Flags().StringVar(&sweepRange, "range", "0.25:2", "min:max")
	cmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of values")
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "grid search starting poses for the best score on a metric",
		Args:  cobra.NoArgs,
		RunE:  searchRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringArrayVar(&searchGrid, "grid", []string{"theta1=0.5:3:6", "theta2=0.5:3:6"}, "name=min:max:n, repeatable")
	cmd.Flags().StringVar(&searchMetric, "metric", "flips", "metric to score (energy, energy_drift, flips)")
	cmd.Flags().BoolVar(&searchMax, "max", true, "keep the highest score instead of the lowest")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	return cmd
}

// parseRange reads "min:max" or "min:max:n".
func parseRange(s string, wantCount bool) (lo, hi float64, n int, err error) {
	parts := strings.Split(s, ":")
	if (wantCount && len(parts) != 3) || (!wantCount && len(parts) != 2) {
		return 0, 0, 0, fmt.Errorf("bad range %q", s)
	}
	if lo, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad range %q: %w", s, err)
	}
	if hi, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return 0, 0, 0, fmt.Errorf("bad range %q: %w", s, err)
	}
	if wantCount {
		if n, err = strconv.Atoi(parts[2]); err != nil || n < 1 {
			return 0, 0, 0, fmt.Errorf("bad count in %q", s)
		}
	}
	return lo, hi, n, nil
}

func batchRun(cmd *cobra.Command, args []string) error {
	base, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	out := batchOut
	if out == "" {
		out = filepath.Join(settings.DataDir, "paintings")
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, err := automation.RunScenario(ctx, scenario, base, out, observability.GetLogger())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPRESET\tSTEPS\tFLIPS\tDRIFT\tOUTPUT")
	for _, r := range results {
		preset := r.Config.Preset
		if preset == "" {
			preset = "-"
		}
		output := r.Output
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.0f\t%.2e\t%s\n",
			r.Step, preset, r.Result.StepsTaken, r.Result.Metrics["flips"], r.Result.EnergyDrift, output)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func sweepRun(cmd *cobra.Command, args []string) error {
	base, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	lo, hi, _, err := parseRange(sweepRange, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	sweep := &automation.ParameterSweep{ParamName: sweepParam, ParamMin: lo, ParamMax: hi, NumSteps: sweepSteps}
	results, err := automation.RunSweep(ctx, sweep, base, observability.GetLogger())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFLIPS\tE MIN\tE MAX\tDRIFT\tSTATUS\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		status := "ok"
		if r.Diverged {
			status = "diverged"
		}
		fmt.Fprintf(w, "%.4g\t%.0f\t%.4f\t%.4f\t%.2e\t%s\n",
			r.ParamValue, r.Flips, r.MinEnergy, r.MaxEnergy, r.EnergyDrift, status)
	}
	return w.Flush()
}

func searchRun(cmd *cobra.Command, args []string) error {
	base, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(searchGrid))
	ranges := make([][]float64, 0, len(searchGrid))
	for _, g := range searchGrid {
		name, bounds, ok := strings.Cut(g, "=")
		if !ok {
			return fmt.Errorf("bad grid %q, want name=min:max:n", g)
		}
		lo, hi, n, err := parseRange(bounds, true)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(lo, hi, n))
	}

	gs := optim.NewGridSearch(names, ranges).
		WithWorkers(workers).
		WithLogger(observability.GetLogger())
	if searchMax {
		gs.Maximize()
	}

	ctx, cancel := signalContext()
	defer cancel()

	best, err := gs.Search(ctx, base, searchMetric)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(best.Values))
	for k := range best.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("best %s: %.6g\n", searchMetric, best.Score)
	for _, k := range keys {
		fmt.Printf("  %s = %.4f\n", k, best.Values[k])
	}
	return nil
}

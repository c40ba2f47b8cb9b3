package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/experiment"
	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/observability"
	"github.com/san-kum/pendart/internal/viz"
)

var (
	theme       string
	transparent bool
	svgOut      bool
	traceOut    string
	paintOut    string
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "tui",
		Short:       "paint with braille dots in the terminal",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{quietAnnotation: "true"},
		RunE:        runTUI,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&theme, "theme", "neon", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list starting pose presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "draw the path of the outer bob",
		Args:  cobra.NoArgs,
		RunE:  traceRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVarP(&traceOut, "out", "o", "trace.png", "output file")
	cmd.Flags().BoolVar(&svgOut, "svg", false, "write an SVG polyline instead of a PNG plot")
	return cmd
}

func newPaintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paint",
		Short: "spray a painting headlessly and save it as PNG",
		Args:  cobra.NoArgs,
		RunE:  paintRun,
	}
	addRunFlags(cmd)
	cmd.Flags().StringVarP(&paintOut, "out", "o", "", "output PNG (default <data>/paintings/<preset>-<time>.png)")
	cmd.Flags().BoolVar(&transparent, "transparent", false, "keep the unpainted background transparent")
	return cmd
}

func runTUI(cmd *cobra.Command, args []string) error {
	session, cfg, err := newSession(cmd)
	if err != nil {
		return err
	}

	title := "pendart"
	if cfg.Preset != "" {
		title += " · " + cfg.Preset
	}

	m, err := viz.NewModel(session, viz.Options{
		Title:   title,
		Kick:    cfg.Kick,
		Theme:   theme,
		FPS:     settings.FPS,
		SaveDir: settings.DataDir,
		Logger:  observability.GetLogger(),
	})
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tθ1\tθ2\tPALETTE\tDESCRIPTION")
	for _, p := range config.Presets() {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%s\t%s\n", p.Name, p.State.Theta1, p.State.Theta2, p.Palette, p.Description)
	}
	return w.Flush()
}

func traceRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, observability.GetLogger())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		observability.GetLogger().Warn("trace cut short", zap.Error(runErr))
	}

	if svgOut {
		points := make([]models.Vec2, len(result.States))
		for i, x := range result.States {
			_, points[i] = models.Project(cfg.Params, x[models.Theta1], x[models.Theta2])
		}
		svg := export.TraceToSVG(points, cfg.Paint.Width, cfg.Paint.Height, "#00d2ff")
		if svg == "" {
			return fmt.Errorf("trace has fewer than 2 points")
		}
		if err := os.WriteFile(traceOut, []byte(svg), 0644); err != nil {
			return err
		}
	} else {
		p, err := export.TracePlot(cfg.Params, result.States)
		if err != nil {
			return err
		}
		if err := export.SavePlotPNG(p, 6, 6, traceOut); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %s (%d points)\n", traceOut, len(result.States))
	return nil
}

func paintRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	exp, err := experiment.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	canvas, _, runErr := exp.Paint(ctx)
	if runErr != nil {
		logger.Warn("painting cut short", zap.Error(runErr))
	}

	path := paintOut
	if path == "" {
		name := cfg.Preset
		if name == "" {
			name = "painting"
		}
		path = filepath.Join(settings.DataDir, "paintings",
			fmt.Sprintf("%s-%s.png", name, time.Now().Format("20060102-150405")))
	}

	if transparent {
		err = export.SaveImage(path, canvas.Image())
	} else {
		err = export.SaveImage(path, canvas.Flatten(color.Black))
	}
	if err != nil {
		return err
	}

	fmt.Printf("painted %d pixels in %v\n", canvas.Painted(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("wrote %s\n", path)
	return nil
}

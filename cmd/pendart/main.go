package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/gui"
	"github.com/san-kum/pendart/internal/gui/window"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/observability"
	"github.com/san-kum/pendart/internal/sim"
)

// quietAnnotation marks commands that own the terminal or a window; their
// log output goes to the log file only.
const quietAnnotation = "quiet"

var (
	settingsFile string
	settings     *config.Settings
	v            *viper.Viper
)

// main registers the commands and runs the paint window when no subcommand
// is given. It exits with status 1 if a command fails.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		observability.GetLogger().Error("command failed", zap.Error(err))
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pendart",
		Short:         "double pendulum spray painter",
		Annotations:   map[string]string{quietAnnotation: "true"},
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initialize(cmd)
		},
		RunE: runWindow,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsFile, "settings", "", "settings file (default is ./pendart.yaml)")
	pf.String("data", ".pendart", "data directory")
	pf.String("log-level", "info", "log level")
	pf.String("log-file", "", "rotating JSON log file")
	pf.Int("fps", config.DefaultFPS, "frames per second for live views")

	addRunFlags(rootCmd)

	rootCmd.AddCommand(
		newTUICmd(),
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newPresetsCmd(),
		newCheckCmd(),
		newCompareCmd(),
		newSpectrumCmd(),
		newPhaseCmd(),
		newPoincareCmd(),
		newEnsembleCmd(),
		newMapCmd(),
		newTraceCmd(),
		newPaintCmd(),
		newBatchCmd(),
		newSweepCmd(),
		newSearchCmd(),
	)
	return rootCmd
}

// initialize reads settings and starts the logger before any command runs.
func initialize(cmd *cobra.Command) error {
	v = config.NewViper(settingsFile)
	pf := cmd.Flags()
	for key, flag := range map[string]string{
		"data":            "data",
		"logger.level":    "log-level",
		"logger.log_file": "log-file",
		"fps":             "fps",
	} {
		if f := pf.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	s, err := config.ReadSettings(v)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console"})
		return fmt.Errorf("settings: %w", err)
	}
	settings = s

	if cmd.Annotations[quietAnnotation] == "true" {
		observability.InitializeQuiet(s.Logger)
	} else {
		observability.InitializeLogger(s.Logger)
	}
	observability.GetLogger().Debug("settings loaded",
		zap.String("data", s.DataDir),
		zap.Int("fps", s.FPS),
		zap.String("settings", v.ConfigFileUsed()))
	return nil
}

// newSession builds a setup-phase session from the run flags.
func newSession(cmd *cobra.Command) (*sim.Session, *config.Config, error) {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.ByName(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	session, err := sim.NewSession(cfg.Params, cfg.InitialState(), cfg.Dt, integ)
	if err != nil {
		return nil, nil, err
	}
	session.SetLogger(observability.GetLogger())
	return session, cfg, nil
}

func runWindow(cmd *cobra.Command, args []string) error {
	session, cfg, err := newSession(cmd)
	if err != nil {
		return err
	}
	logger := observability.GetLogger()

	view := cfg.Paint.View()
	if !view.Fits(cfg.Params) {
		logger.Warn("pendulum does not fit the window",
			zap.Float64("reach", cfg.Params.L1+cfg.Params.L2),
			zap.Float64("scale", view.Scale))
	}

	ctl := gui.NewController(session, view, gui.Options{
		Kick:     cfg.Kick,
		Brush:    cfg.Paint.Brush(),
		Palette:  cfg.Paint.Palette,
		ColorKey: cfg.Paint.ColorKey,
		FPS:      settings.FPS,
		SaveDir:  settings.DataDir,
		Seed:     cfg.Seed,
		Logger:   logger,
	})

	logger.Info("opening window", zap.Int("width", view.Width), zap.Int("height", view.Height))
	window.NewApp(ctl, settings.FPS).Run()
	return nil
}

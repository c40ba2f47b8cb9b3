// Package automation runs scripted batches of paintings and parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/experiment"
	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/models"
)

// Scenario is a named list of runs read from YAML.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overlays one run on the defaults. A preset is applied first,
// then any field set here. With Paint set the step sprays a canvas and
// writes it to SaveAs.
type ScenarioStep struct {
	Preset     string                  `yaml:"preset"`
	Integrator string                  `yaml:"integrator"`
	Duration   float64                 `yaml:"duration"`
	Dt         float64                 `yaml:"dt"`
	Kick       float64                 `yaml:"kick"`
	Seed       uint64                  `yaml:"seed"`
	InitState  *config.InitStateConfig `yaml:"init_state"`
	Params     *models.Params          `yaml:"params"`
	Palette    string                  `yaml:"palette"`
	ColorKey   int                     `yaml:"color_key"`
	Paint      bool                    `yaml:"paint"`
	SaveAs     string                  `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step   int
	Config *config.Config
	Result *dynamo.Result
	Output string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config builds the run config for the step on top of base.
func (s ScenarioStep) Config(base *config.Config) (*config.Config, error) {
	cfg := *base
	if s.Preset != "" {
		if err := cfg.ApplyPreset(s.Preset); err != nil {
			return nil, err
		}
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Duration != 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt != 0 {
		cfg.Dt = s.Dt
	}
	if s.Kick != 0 {
		cfg.Kick = s.Kick
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.InitState != nil {
		cfg.InitState = *s.InitState
	}
	if s.Params != nil {
		cfg.Params = *s.Params
	}
	if s.Palette != "" {
		cfg.Paint.Palette = s.Palette
	}
	if s.ColorKey != 0 {
		cfg.Paint.ColorKey = s.ColorKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RunScenario executes every step in order. Relative SaveAs paths resolve
// against outDir. A step that diverges keeps its partial result; any other
// error stops the scenario.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, outDir string, logger *zap.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config(base)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, logger)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("preset", cfg.Preset))

		sr := StepResult{Step: i + 1, Config: cfg}
		if step.Paint {
			canvas, result, err := exp.Paint(ctx)
			if err != nil && !dynamo.IsDivergence(err) {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			sr.Result = result

			sr.Output = stepPath(outDir, step.SaveAs, scenario.Name, i+1)
			if err := export.SaveImage(sr.Output, canvas.Flatten(color.Black)); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		} else {
			result, err := exp.Run(ctx)
			if err != nil && !dynamo.IsDivergence(err) {
				return results, fmt.Errorf("step %d run: %w", i+1, err)
			}
			sr.Result = result
		}

		results = append(results, sr)
	}

	return results, nil
}

func stepPath(outDir, saveAs, name string, step int) string {
	if saveAs == "" {
		if name == "" {
			name = "scenario"
		}
		saveAs = fmt.Sprintf("%s-%02d.png", name, step)
	}
	if filepath.IsAbs(saveAs) {
		return saveAs
	}
	return filepath.Join(outDir, saveAs)
}

// ParameterSweep runs one pose across evenly spaced values of a single
// pendulum parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds the summary of one sweep point.
type SweepResult struct {
	ParamValue  float64
	FinalState  dynamo.State
	MaxEnergy   float64
	MinEnergy   float64
	EnergyDrift float64
	Flips       float64
	Diverged    bool
}

// SetParam sets the named field of p.
func SetParam(p *models.Params, name string, value float64) error {
	switch name {
	case "l1":
		p.L1 = value
	case "l2":
		p.L2 = value
	case "m1":
		p.M1 = value
	case "m2":
		p.M2 = value
	case "g":
		p.G = value
	default:
		return fmt.Errorf("unknown parameter %q (want l1, l2, m1, m2 or g)", name)
	}
	return nil
}

// RunSweep executes the sweep with base as the template run.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, logger *zap.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := *base
		if err := SetParam(&cfg.Params, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		exp, err := experiment.New(&cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		result, err := exp.Run(ctx)
		if err != nil && !dynamo.IsDivergence(err) {
			return nil, err
		}

		sr := SweepResult{
			ParamValue: paramVal,
			MinEnergy:  math.Inf(1),
			MaxEnergy:  math.Inf(-1),
			Diverged:   err != nil,
		}
		if result != nil {
			sr.FinalState = result.Final()
			sr.EnergyDrift = result.EnergyDrift
			sr.Flips = result.Metrics["flips"]
			for _, x := range result.States {
				e := exp.Model().Energy(x)
				sr.MinEnergy = math.Min(sr.MinEnergy, e)
				sr.MaxEnergy = math.Max(sr.MaxEnergy, e)
			}
		}

		results = append(results, sr)
		logger.Debug("sweep point",
			zap.String("param", sweep.ParamName),
			zap.Float64("value", paramVal),
			zap.Float64("flips", sr.Flips))
	}

	return results, nil
}

package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/models"
)

func shortBase() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Dt = 0.01
	cfg.Duration = 0.5
	cfg.Paint.Width, cfg.Paint.Height, cfg.Paint.Scale = 120, 100, 30
	return cfg
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	doc := `name: night
steps:
  - preset: chaos
    paint: true
  - init_state: {theta1: 0.2, theta2: -0.1}
    duration: 2
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "night", sc.Name)
	require.Len(t, sc.Steps, 2)
	assert.True(t, sc.Steps[0].Paint)
	require.NotNil(t, sc.Steps[1].InitState)
	assert.Equal(t, 0.2, sc.Steps[1].InitState.Theta1)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("name: x\n"), 0644))
	_, err = LoadScenario(empty)
	assert.Error(t, err)
}

func TestStepConfigOverlay(t *testing.T) {
	base := shortBase()
	step := ScenarioStep{Preset: "gentle", Kick: 0.3, Palette: "warm", Params: &models.Params{L1: 1, L2: 1, M1: 2, M2: 1, G: 9.81}}

	cfg, err := step.Config(base)
	require.NoError(t, err)

	gentle, _ := config.GetPreset("gentle")
	assert.Equal(t, gentle.State, cfg.InitState)
	assert.Equal(t, 0.3, cfg.Kick)
	assert.Equal(t, "warm", cfg.Paint.Palette)
	assert.Equal(t, 2.0, cfg.Params.M1)
	assert.Equal(t, base.Dt, cfg.Dt)

	// base is not modified
	assert.Empty(t, base.Preset)
	assert.Equal(t, 1.0, base.Params.M1)

	_, err = ScenarioStep{Preset: "missing"}.Config(base)
	assert.Error(t, err)
	_, err = ScenarioStep{Dt: -1}.Config(base)
	assert.Error(t, err)
}

func TestRunScenario(t *testing.T) {
	out := t.TempDir()
	sc := &Scenario{
		Name: "test",
		Steps: []ScenarioStep{
			{Preset: "chaos", Paint: true},
			{Preset: "gentle", Paint: true, SaveAs: "gentle.png"},
			{Preset: "flower"},
		},
	}

	results, err := RunScenario(context.Background(), sc, shortBase(), out, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, filepath.Join(out, "test-01.png"), results[0].Output)
	assert.Equal(t, filepath.Join(out, "gentle.png"), results[1].Output)
	assert.Empty(t, results[2].Output)

	for _, r := range results[:2] {
		_, err := os.Stat(r.Output)
		assert.NoError(t, err)
	}
	for _, r := range results {
		require.NotNil(t, r.Result)
		assert.Equal(t, 50, r.Result.StepsTaken)
	}
}

func TestRunScenarioStopsOnBadStep(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Preset: "chaos"}, {Integrator: "leapfrog"}}}

	results, err := RunScenario(context.Background(), sc, shortBase(), t.TempDir(), nil)
	assert.Error(t, err)
	assert.Len(t, results, 1)
}

func TestRunSweep(t *testing.T) {
	sweep := &ParameterSweep{ParamName: "l2", ParamMin: 0.5, ParamMax: 1.5, NumSteps: 3}

	results, err := RunSweep(context.Background(), sweep, shortBase(), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 0.5, results[0].ParamValue, 1e-12)
	assert.InDelta(t, 1.0, results[1].ParamValue, 1e-12)
	assert.InDelta(t, 1.5, results[2].ParamValue, 1e-12)
	for _, r := range results {
		assert.False(t, r.Diverged)
		assert.Len(t, r.FinalState, models.StateDim)
		assert.LessOrEqual(t, r.MinEnergy, r.MaxEnergy)
	}
}

func TestRunSweepRejects(t *testing.T) {
	_, err := RunSweep(context.Background(), &ParameterSweep{ParamName: "l3", ParamMin: 1, ParamMax: 2, NumSteps: 2}, shortBase(), nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{ParamName: "g", ParamMin: 1, ParamMax: 2, NumSteps: 1}, shortBase(), nil)
	assert.Error(t, err)

	// zero length is rejected by the model
	_, err = RunSweep(context.Background(), &ParameterSweep{ParamName: "l1", ParamMin: 0, ParamMax: 1, NumSteps: 2}, shortBase(), nil)
	assert.Error(t, err)
}

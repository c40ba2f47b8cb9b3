package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/config"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
)

func shortConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Duration = 1
	cfg.Dt = 0.01
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := shortConfig()
	cfg.Params.L1 = 0

	_, err := New(cfg, nil)
	assert.True(t, errors.Is(err, dynamo.ErrParameterBounds), "got %v", err)
}

func TestRunRecordsMetrics(t *testing.T) {
	cfg := shortConfig()
	require.NoError(t, cfg.ApplyPreset("gentle"))

	e, err := New(cfg, nil)
	require.NoError(t, err)

	res, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, res.StepsTaken)
	assert.Len(t, res.States, 101)
	assert.Contains(t, res.Metrics, "energy")
	assert.Contains(t, res.Metrics, "energy_drift")
	assert.Equal(t, 0.0, res.Metrics["flips"], "small swings never go over the top")
	assert.Less(t, res.EnergyDrift, 1e-4)
}

func TestKickAddsToInnerVelocity(t *testing.T) {
	cfg := shortConfig()
	cfg.InitState = config.InitStateConfig{Theta1: 0.5, Theta2: 0.2, Omega1: 1}
	cfg.Kick = 0.5

	e, err := New(cfg, nil)
	require.NoError(t, err)

	x := e.Initial()
	assert.Equal(t, 1.5, x[models.Omega1])
	assert.Equal(t, 0.0, x[models.Omega2])

	info := e.Info()
	assert.Equal(t, "rk4", info.Integrator)
	assert.Equal(t, []float64{0.5, 0.2, 1.5, 0}, info.Initial)
}

func TestPaintSpraysAlongTrace(t *testing.T) {
	cfg := shortConfig()
	cfg.Paint.Width, cfg.Paint.Height = 400, 400
	cfg.Paint.Scale = 100

	e, err := New(cfg, nil)
	require.NoError(t, err)

	canvas, res, err := e.Paint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, res.StepsTaken)
	assert.Equal(t, 400, canvas.Width())
	assert.Positive(t, canvas.Painted())
}

func TestPainterIsDeterministic(t *testing.T) {
	run := func() int {
		view := paint.View{Width: 200, Height: 200, Scale: 50}
		canvas := paint.NewCanvas(view.Width, view.Height)
		p := NewPainter(canvas, view, models.DefaultParams(), paint.DefaultBrush(), 7)
		for i := 0; i < 20; i++ {
			p.OnStep(dynamo.State{0.1 * float64(i), -0.2 * float64(i), 0, 0}, 0)
		}
		assert.Equal(t, 20, p.Sprays())
		return p.Particles()
	}

	assert.Equal(t, run(), run())
}

package optim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/config"
)

func base() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Dt = 0.01
	cfg.Duration = 3
	return cfg
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, Linspace(0, 1, 3))
	assert.Equal(t, []float64{2}, Linspace(2, 5, 1))
}

func TestSet(t *testing.T) {
	cfg := base()
	require.NoError(t, Set(cfg, "theta2", 1.25))
	require.NoError(t, Set(cfg, "kick", 0.5))
	require.NoError(t, Set(cfg, "m2", 3))

	assert.Equal(t, 1.25, cfg.InitState.Theta2)
	assert.Equal(t, 0.5, cfg.Kick)
	assert.Equal(t, 3.0, cfg.Params.M2)
	assert.Error(t, Set(cfg, "speed", 1))
}

func TestSearchMaximizesFlips(t *testing.T) {
	// A small swing never flips; a hard kick whirls the arms over the top.
	cfg := base()
	cfg.InitState = config.InitStateConfig{Theta1: 0.1, Theta2: 0.1}
	gs := NewGridSearch([]string{"kick"}, [][]float64{{0, 20}}).Maximize().WithWorkers(2)

	best, err := gs.Search(context.Background(), cfg, "flips")
	require.NoError(t, err)

	assert.Equal(t, 20.0, best.Values["kick"])
	assert.Greater(t, best.Score, 0.0)
}

func TestSearchMinimizesDrift(t *testing.T) {
	gs := NewGridSearch([]string{"theta1", "theta2"}, [][]float64{{0.05, 2.5}, {0.05}})

	best, err := gs.Search(context.Background(), base(), "energy_drift")
	require.NoError(t, err)

	assert.Equal(t, 0.05, best.Values["theta1"])
	assert.Equal(t, 0.05, best.Values["theta2"])
	assert.False(t, math.IsNaN(best.Score))
}

func TestSearchTiesGoToFirstPoint(t *testing.T) {
	// Small swings never flip, so every point scores zero.
	gs := NewGridSearch([]string{"theta1"}, [][]float64{Linspace(0.1, 0.3, 5)}).Maximize().WithWorkers(4)

	best, err := gs.Search(context.Background(), base(), "flips")
	require.NoError(t, err)
	assert.Equal(t, 0.1, best.Values["theta1"])
	assert.Equal(t, 0.0, best.Score)
}

func TestSearchRejects(t *testing.T) {
	ctx := context.Background()

	_, err := NewGridSearch([]string{"theta1"}, nil).Search(ctx, base(), "flips")
	assert.Error(t, err)

	_, err = NewGridSearch([]string{"theta1"}, [][]float64{{}}).Search(ctx, base(), "flips")
	assert.Error(t, err)

	_, err = NewGridSearch([]string{"bogus"}, [][]float64{{1}}).Search(ctx, base(), "flips")
	assert.Error(t, err)

	_, err = NewGridSearch([]string{"theta1"}, [][]float64{{0.1}}).Search(ctx, base(), "no_such_metric")
	assert.Error(t, err)

	_, err = NewGridSearch([]string{"l1"}, [][]float64{{-1}}).Search(ctx, base(), "flips")
	assert.Error(t, err)
}

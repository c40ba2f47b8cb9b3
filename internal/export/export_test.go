package export

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.sr.ht/~sbinet/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/analysis"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/sim"
)

func TestBrailleToSVG(t *testing.T) {
	grid := [][]rune{
		{brailleBase | 0x01, brailleBase},
		{brailleBase, brailleBase | 0x01 | 0x80},
	}

	svg := BrailleToSVG(grid, 2, "#ffffff")
	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Contains(t, svg, `width="8" height="16"`)
	assert.Equal(t, 3, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `fill="#ffffff"`)

	assert.Empty(t, BrailleToSVG(nil, 2, "#fff"))
}

func TestTraceToSVG(t *testing.T) {
	pts := []models.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}
	svg := TraceToSVG(pts, 100, 50, "red")

	assert.Contains(t, svg, `stroke="red"`)
	assert.Equal(t, 2, strings.Count(svg, " L"))
	assert.Empty(t, TraceToSVG(pts[:1], 100, 50, "red"))
}

func simulate(t *testing.T) (*models.DoublePendulum, *dynamo.Result) {
	t.Helper()
	dp, err := models.NewDoublePendulum(models.UnitParams())
	require.NoError(t, err)

	s := sim.New(dp, integrators.NewRK4())
	res, err := s.Run(t.Context(), dynamo.State{math.Pi / 2, math.Pi / 2, 0, 0}, dynamo.Config{Dt: 0.01, Duration: 2})
	require.NoError(t, err)
	return dp, res
}

func TestPlotsSaveAsPNG(t *testing.T) {
	dp, res := simulate(t)
	dir := t.TempDir()

	trace, err := TracePlot(dp.Params(), res.States)
	require.NoError(t, err)
	require.NoError(t, SavePlotPNG(trace, 4, 4, filepath.Join(dir, "trace.png")))

	energy, err := EnergyPlot(dp, res)
	require.NoError(t, err)
	require.NoError(t, SavePlotPNG(energy, 4, 3, filepath.Join(dir, "nested", "energy.png")))

	img, err := gg.LoadPNG(filepath.Join(dir, "trace.png"))
	require.NoError(t, err)
	assert.Equal(t, 4*plotDPI, img.Bounds().Dx())
	assert.FileExists(t, filepath.Join(dir, "nested", "energy.png"))
}

func TestPoincarePlot(t *testing.T) {
	dp, err := models.NewDoublePendulum(models.UnitParams())
	require.NoError(t, err)

	section := analysis.GeneratePoincareSection(dp, integrators.NewRK4(), dynamo.State{1, 1.5, 0, 0},
		models.Theta1, 0, models.Theta2, models.Omega2, 0.005, 30)
	require.NotNil(t, section)

	p, err := PoincarePlot(section, "θ2", "ω2")
	require.NoError(t, err)
	require.NoError(t, SavePlotPNG(p, 3, 3, filepath.Join(t.TempDir(), "poincare.png")))

	_, err = PoincarePlot(&analysis.PoincareSection{}, "x", "y")
	assert.Error(t, err)
}

func TestPlotInputValidation(t *testing.T) {
	_, err := LinePlot("t", "x", "y", []float64{1, 2}, []float64{1})
	assert.Error(t, err)

	_, err = TracePlot(models.UnitParams(), []dynamo.State{{0, 0, 0, 0}})
	assert.Error(t, err)
}

func TestSaveImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "maps", "flip.png")
	require.NoError(t, SaveImage(path, img))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	back, err := gg.LoadPNG(path)
	require.NoError(t, err)
	r, _, _, _ := back.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

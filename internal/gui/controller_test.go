package gui

import (
	"image"
	"image/color"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
	"github.com/san-kum/pendart/internal/sim"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	session, err := sim.NewSession(models.DefaultParams(), models.RestState(math.Pi/4, math.Pi/6), 1.0/120, nil)
	require.NoError(t, err)

	return NewController(session, paint.DefaultView(), Options{
		Brush:    paint.DefaultBrush(),
		Palette:  "default",
		ColorKey: 1,
		FPS:      60,
		SaveDir:  t.TempDir(),
		Seed:     1,
	})
}

func TestNewController(t *testing.T) {
	c := newController(t)
	assert.Equal(t, 2, c.StepsPerFrame())
	assert.Equal(t, "default", c.Palette().Name)
	assert.Equal(t, color.RGBA{255, 100, 100, 255}, c.Brush().Color)
	assert.True(t, c.ShowArms())
	assert.Equal(t, sim.PhaseSetup, c.Session().Phase())
	assert.Equal(t, paint.DefaultWidth, c.Canvas().Width())
}

func TestDragInnerBob(t *testing.T) {
	c := newController(t)
	bob1, _ := c.Bobs()

	c.Update(Input{Cursor: bob1, MousePressed: true, MouseDown: true})
	assert.Equal(t, paint.InnerBob, c.Dragging())
	assert.Equal(t, sim.PhaseSetup, c.Session().Phase(), "grabbing a bob does not start")

	// Drag straight out to the right, well beyond arm reach.
	target := c.View().Origin().Add(models.Vec2{X: 900})
	c.Update(Input{Cursor: target, MouseDown: true})

	x := c.Session().State()
	assert.InDelta(t, math.Pi/2, x[models.Theta1], 1e-9)
	assert.InDelta(t, math.Pi/6, x[models.Theta2], 1e-9)

	c.Update(Input{Cursor: target, MouseReleased: true})
	assert.Equal(t, paint.NoBob, c.Dragging())
}

func TestDragOuterBob(t *testing.T) {
	c := newController(t)
	bob1, bob2 := c.Bobs()

	c.Update(Input{Cursor: bob2, MousePressed: true, MouseDown: true})
	require.Equal(t, paint.OuterBob, c.Dragging())

	c.Update(Input{Cursor: bob1.Add(models.Vec2{Y: -50}), MouseDown: true})
	x := c.Session().State()
	assert.InDelta(t, math.Pi, math.Abs(x[models.Theta2]), 1e-9, "outer arm points straight up")
	assert.InDelta(t, math.Pi/4, x[models.Theta1], 1e-9)
}

func TestClickStartsAndResets(t *testing.T) {
	c := newController(t)

	c.Update(Input{Cursor: models.Vec2{X: 5, Y: 5}, MousePressed: true})
	require.Equal(t, sim.PhaseRunning, c.Session().Phase())

	c.Update(Input{})
	c.Update(Input{})
	assert.Equal(t, 2*c.StepsPerFrame(), c.Session().Steps())

	c.Update(Input{MousePressed: true})
	assert.Equal(t, sim.PhaseSetup, c.Session().Phase())
	assert.Zero(t, c.Session().Steps())
	assert.Equal(t, dynamo.State{math.Pi / 4, math.Pi / 6, 0, 0}, c.Session().State())
}

func TestSprayOnlyWhileHeld(t *testing.T) {
	c := newController(t)
	c.Update(Input{Cursor: models.Vec2{X: 5, Y: 5}, MousePressed: true})

	for i := 0; i < 10; i++ {
		c.Update(Input{})
	}
	assert.Zero(t, c.Canvas().Painted())

	for i := 0; i < 10; i++ {
		c.Update(Input{Spraying: true})
	}
	assert.Positive(t, c.Canvas().Painted())

	c.Update(Input{Actions: []Action{ActionClear}})
	assert.Zero(t, c.Canvas().Painted())
}

func TestPauseStopsTime(t *testing.T) {
	c := newController(t)
	c.Update(Input{Cursor: models.Vec2{X: 5, Y: 5}, MousePressed: true})
	c.Update(Input{Actions: []Action{ActionPause}})
	steps := c.Session().Steps()

	c.Update(Input{Spraying: true})
	assert.Equal(t, steps, c.Session().Steps())
	assert.Equal(t, sim.PhasePaused, c.Session().Phase())

	c.Update(Input{Actions: []Action{ActionPause}})
	assert.Equal(t, sim.PhaseRunning, c.Session().Phase())

	c.Update(Input{Actions: []Action{ActionReset}})
	assert.Equal(t, sim.PhaseSetup, c.Session().Phase())
}

func TestBrushAndPaletteKeys(t *testing.T) {
	c := newController(t)

	c.Update(Input{Actions: []Action{ActionBrushGrow, ActionBrushGrow, ActionDenser}})
	assert.Equal(t, paint.DefaultBrushSize+2, c.Brush().Size)
	assert.Equal(t, paint.DefaultParticles+paint.ParticleStep, c.Brush().Particles)

	c.Update(Input{Actions: []Action{ActionBrushShrink, ActionSparser, ActionSparser}})
	assert.Equal(t, paint.DefaultBrushSize+1, c.Brush().Size)
	assert.Equal(t, paint.DefaultParticles-paint.ParticleStep, c.Brush().Particles)

	c.Update(Input{Actions: []Action{ActionColor1 + 2}})
	assert.Equal(t, 3, c.ColorKey())
	assert.Equal(t, color.RGBA{100, 100, 255, 255}, c.Brush().Color)

	c.Update(Input{Actions: []Action{ActionNextPalette}})
	assert.Equal(t, paint.PaletteNames()[1], c.Palette().Name)
	assert.Equal(t, 3, c.ColorKey(), "colour key survives a palette change")
	want, _ := c.Palette().Key(3)
	assert.Equal(t, want, c.Brush().Color)

	c.Update(Input{Actions: []Action{ActionToggleArms, ActionHelp}})
	assert.False(t, c.ShowArms())
	assert.True(t, c.ShowHelp())
}

func TestQuitKey(t *testing.T) {
	c := newController(t)
	assert.False(t, c.Quit())

	c.Update(Input{Actions: []Action{ActionPause}})
	assert.False(t, c.Quit())

	c.Update(Input{Actions: []Action{ActionQuit}})
	assert.True(t, c.Quit())
}

func TestSavePNG(t *testing.T) {
	c := newController(t)
	c.Update(Input{Cursor: models.Vec2{X: 5, Y: 5}, MousePressed: true})
	for i := 0; i < 5; i++ {
		c.Update(Input{Spraying: true})
	}

	c.Update(Input{Actions: []Action{ActionSave}})
	require.True(t, strings.HasPrefix(c.Status(), "saved "), c.Status())

	info, err := os.Stat(strings.TrimPrefix(c.Status(), "saved "))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestPixelsUnpremultiplies(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	copy(img.Pix, []uint8{
		0, 0, 0, 0,
		10, 20, 30, 255,
		64, 0, 32, 128,
	})

	px := Pixels(img, nil)
	require.Len(t, px, 3)
	assert.Equal(t, color.RGBA{}, px[0])
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, px[1])
	assert.Equal(t, color.RGBA{127, 0, 63, 128}, px[2])

	again := Pixels(img, px)
	assert.Equal(t, &px[0], &again[0], "buffer is reused")
}

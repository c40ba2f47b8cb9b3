package paint

import (
	"image/color"
	"image/png"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendart/internal/models"
)

func TestPalettesOrdered(t *testing.T) {
	assert.Equal(t, []string{"default", "bright", "rainbow", "warm", "cool"}, PaletteNames())

	for _, p := range Palettes() {
		for i, c := range p.Colors {
			assert.Equal(t, uint8(255), c.A, "%s colour %d not opaque", p.Name, i+1)
		}
		nine, ok := p.Key(9)
		require.True(t, ok)
		if p.Name == "rainbow" {
			assert.Equal(t, Rainbow()[8], nine)
			continue
		}
		assert.Equal(t, color.RGBA{255, 255, 255, 255}, nine, "%s key 9 should be white", p.Name)
	}
}

func TestPaletteKeys(t *testing.T) {
	p, ok := PaletteByName("warm")
	require.True(t, ok)

	c, ok := p.Key(1)
	assert.True(t, ok)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, c)

	_, ok = p.Key(0)
	assert.False(t, ok)
	_, ok = p.Key(10)
	assert.False(t, ok)

	_, ok = PaletteByName("missing")
	assert.False(t, ok)
}

func TestRainbow(t *testing.T) {
	r := Rainbow()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r[0])
	// hue 1/3 is pure green
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, r[3])
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, r[6])
	// nine hues at i/9, so the last is magenta rather than red again
	assert.Equal(t, color.RGBA{255, 0, 170, 255}, r[8])
}

func TestHSVWrapsHue(t *testing.T) {
	assert.Equal(t, HSV(0.25, 1, 1), HSV(1.25, 1, 1))
	assert.Equal(t, HSV(0.9, 0.5, 0.5), HSV(-0.1, 0.5, 0.5))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, HSV(0.4, 1, 0))
}

func TestBrushLimits(t *testing.T) {
	b := DefaultBrush()
	assert.Equal(t, 3, b.Size)
	assert.Equal(t, 8, b.Particles)
	assert.Equal(t, 6.0, b.Radius())

	for i := 0; i < 20; i++ {
		b.Grow()
		b.Denser()
	}
	assert.Equal(t, MaxBrushSize, b.Size)
	assert.Equal(t, MaxParticles, b.Particles)

	for i := 0; i < 20; i++ {
		b.Shrink()
		b.Sparser()
	}
	assert.Equal(t, MinBrushSize, b.Size)
	assert.Equal(t, MinParticles, b.Particles)
}

func TestSprayStaysInDisc(t *testing.T) {
	c := NewCanvas(200, 200)
	b := DefaultBrush()
	b.Particles = 20
	rng := rand.New(rand.NewPCG(1, 2))

	drawn := c.Spray(100, 100, b, rng)
	assert.Equal(t, 20, drawn)
	assert.Positive(t, c.Painted())

	// disc radius plus the largest particle and one pixel of antialiasing
	reach := b.Radius() + MaxParticleRadius + 1
	img := c.Image()
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			d := math.Hypot(float64(x)+0.5-100, float64(y)+0.5-100)
			assert.LessOrEqual(t, d, reach+1, "pixel (%d,%d) painted outside the spray", x, y)
		}
	}
}

func TestSprayClipsAtEdges(t *testing.T) {
	c := NewCanvas(50, 50)
	b := DefaultBrush()
	b.Size = MaxBrushSize
	b.Particles = MaxParticles
	rng := rand.New(rand.NewPCG(7, 7))

	drawn := 0
	for i := 0; i < 10; i++ {
		drawn += c.Spray(0, 0, b, rng)
	}
	assert.Less(t, drawn, 10*MaxParticles, "particles off the canvas should be dropped")

	assert.Zero(t, c.Spray(-500, -500, b, rng))
}

func TestSprayDeterministic(t *testing.T) {
	a, b := NewCanvas(64, 64), NewCanvas(64, 64)
	brush := DefaultBrush()

	a.Spray(32, 32, brush, rand.New(rand.NewPCG(3, 4)))
	b.Spray(32, 32, brush, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, a.Image().Pix, b.Image().Pix)
}

func TestClearAndSave(t *testing.T) {
	c := NewCanvas(40, 30)
	c.Spray(20, 15, DefaultBrush(), rand.New(rand.NewPCG(1, 1)))
	require.Positive(t, c.Painted())

	path := filepath.Join(t.TempDir(), "art", "out.png")
	require.NoError(t, c.SavePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())

	c.Clear()
	assert.Zero(t, c.Painted())
}

func TestViewRoundTrip(t *testing.T) {
	v := DefaultView()
	assert.Equal(t, models.Vec2{X: 500, Y: 400}, v.Origin())

	w := models.Vec2{X: 0.3, Y: -0.7}
	back := v.ToWorld(v.ToScreen(w))
	assert.InDelta(t, w.X, back.X, 1e-12)
	assert.InDelta(t, w.Y, back.Y, 1e-12)

	// hanging straight down is below the pivot on screen
	bob1, _ := v.Bobs(models.DefaultParams(), 0, 0)
	assert.InDelta(t, 500, bob1.X, 1e-9)
	assert.InDelta(t, 600, bob1.Y, 1e-9)
	assert.True(t, v.Fits(models.DefaultParams()))
}

func TestConstrain(t *testing.T) {
	anchor := models.Vec2{X: 10, Y: 10}

	inside := models.Vec2{X: 12, Y: 13}
	assert.Equal(t, inside, Constrain(inside, anchor, 5))

	got := Constrain(models.Vec2{X: 30, Y: 10}, anchor, 5)
	assert.InDelta(t, 15, got.X, 1e-12)
	assert.InDelta(t, 10, got.Y, 1e-12)
}

func TestPick(t *testing.T) {
	v := DefaultView()
	p := models.DefaultParams()
	bob1, bob2 := v.Bobs(p, 0.4, -0.3)

	assert.Equal(t, InnerBob, v.Pick(p, 0.4, -0.3, bob1.Add(models.Vec2{X: 39})))
	assert.Equal(t, OuterBob, v.Pick(p, 0.4, -0.3, bob2))
	assert.Equal(t, NoBob, v.Pick(p, 0.4, -0.3, v.Origin()))
}

func TestDragAngles(t *testing.T) {
	v := DefaultView()
	p := models.DefaultParams()

	// dragging the inner bob far to the right pins it horizontal
	theta1, theta2 := v.DragAngles(p, 0, 0.2, InnerBob, models.Vec2{X: 2000, Y: 400})
	assert.InDelta(t, math.Pi/2, theta1, 1e-12)
	assert.Equal(t, 0.2, theta2)

	// dragging the outer bob straight up from the inner bob
	bob1, _ := v.Bobs(p, 0.5, 0)
	theta1, theta2 = v.DragAngles(p, 0.5, 0, OuterBob, bob1.Sub(models.Vec2{Y: 30}))
	assert.Equal(t, 0.5, theta1)
	assert.InDelta(t, math.Pi, math.Abs(theta2), 1e-12)

	theta1, theta2 = v.DragAngles(p, 0.1, 0.2, NoBob, models.Vec2{})
	assert.Equal(t, 0.1, theta1)
	assert.Equal(t, 0.2, theta2)
}

func TestFlatten(t *testing.T) {
	c := NewCanvas(20, 20)
	rng := rand.New(rand.NewPCG(3, 4))
	b := DefaultBrush()
	c.Spray(10, 10, b, rng)

	flat := c.Flatten(color.Black)
	_, _, _, a := flat.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), a, "background is opaque")
	r, _, _, _ := flat.At(0, 0).RGBA()
	assert.Zero(t, r)
}

package paint

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
)

// Canvas is a transparent raster that accumulates spray particles.
// Particles are alpha-blended over what is already there.
type Canvas struct {
	img *image.RGBA
	dc  *gg.Context
}

func NewCanvas(width, height int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &Canvas{img: img, dc: gg.NewContextForRGBA(img)}
}

func (c *Canvas) Width() int         { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int        { return c.img.Bounds().Dy() }
func (c *Canvas) Image() *image.RGBA { return c.img }

// Contains reports whether pixel (x, y) lies on the canvas.
func (c *Canvas) Contains(x, y int) bool {
	return image.Pt(x, y).In(c.img.Bounds())
}

// Clear makes every pixel transparent again.
func (c *Canvas) Clear() {
	clear(c.img.Pix)
}

// Spray scatters b.Particles dots around (cx, cy). Each dot lands at a
// uniformly random angle and distance up to b.Radius(), has a radius of 1 to
// 3 pixels, a colour jittered from b.Color and a random alpha. Dots whose
// centre falls outside the canvas are dropped. It returns the number drawn.
func (c *Canvas) Spray(cx, cy float64, b Brush, rng *rand.Rand) int {
	drawn := 0
	for i := 0; i < b.Particles; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := rng.Float64() * b.Radius()

		px := int(cx) + int(dist*math.Cos(angle))
		py := int(cy) + int(dist*math.Sin(angle))
		size := MinParticleRadius + rng.IntN(MaxParticleRadius-MinParticleRadius+1)
		col := jitter(b.Color, rng)
		alpha := MinAlpha + rng.IntN(MaxAlpha-MinAlpha+1)

		if !c.Contains(px, py) {
			continue
		}

		c.dc.SetRGBA255(int(col.R), int(col.G), int(col.B), alpha)
		c.dc.DrawCircle(float64(px), float64(py), float64(size))
		c.dc.Fill()
		drawn++
	}
	return drawn
}

func jitter(base color.RGBA, rng *rand.Rand) color.RGBA {
	ch := func(v uint8) uint8 {
		n := int(v) + rng.IntN(2*ColorJitter+1) - ColorJitter
		return uint8(min(255, max(0, n)))
	}
	return color.RGBA{ch(base.R), ch(base.G), ch(base.B), 255}
}

// SavePNG writes the canvas, creating parent directories as needed.
func (c *Canvas) SavePNG(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := c.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Painted counts pixels that are not fully transparent.
func (c *Canvas) Painted() int {
	n := 0
	for i := 3; i < len(c.img.Pix); i += 4 {
		if c.img.Pix[i] != 0 {
			n++
		}
	}
	return n
}

// Flatten composites the canvas over an opaque background.
func (c *Canvas) Flatten(bg color.Color) *image.RGBA {
	out := image.NewRGBA(c.img.Bounds())
	dc := gg.NewContextForRGBA(out)
	dc.SetColor(bg)
	dc.Clear()
	dc.DrawImage(c.img, 0, 0)
	return out
}

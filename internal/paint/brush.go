package paint

import "image/color"

const (
	MinBrushSize     = 1
	MaxBrushSize     = 10
	DefaultBrushSize = 3

	MinParticles     = 2
	MaxParticles     = 20
	ParticleStep     = 2
	DefaultParticles = 8

	// ColorJitter is the largest per-channel deviation of a particle.
	ColorJitter = 20
	MinAlpha    = 100
	MaxAlpha    = 255

	MinParticleRadius = 1
	MaxParticleRadius = 3
)

// Brush is the spray applied at the pendulum tip.
type Brush struct {
	Size      int
	Particles int
	Color     color.RGBA
}

func DefaultBrush() Brush {
	return Brush{
		Size:      DefaultBrushSize,
		Particles: DefaultParticles,
		Color:     color.RGBA{255, 255, 255, 255},
	}
}

// Radius is the spray disc radius in pixels.
func (b Brush) Radius() float64 { return float64(2 * b.Size) }

func (b *Brush) Grow()   { b.Size = min(MaxBrushSize, b.Size+1) }
func (b *Brush) Shrink() { b.Size = max(MinBrushSize, b.Size-1) }

func (b *Brush) Denser()  { b.Particles = min(MaxParticles, b.Particles+ParticleStep) }
func (b *Brush) Sparser() { b.Particles = max(MinParticles, b.Particles-ParticleStep) }

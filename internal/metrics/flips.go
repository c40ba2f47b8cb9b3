package metrics

import (
	"math"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/models"
)

// Flips counts how many times either arm passes over its pivot, i.e. how
// often an angle crosses an odd multiple of π.
type Flips struct {
	name  string
	count int
	turns [2]int
	seen  bool
}

func NewFlips() *Flips {
	return &Flips{name: "flips"}
}

func (f *Flips) Name() string { return f.name }

func (f *Flips) Observe(x dynamo.State, t float64) {
	turns := [2]int{Winding(x[models.Theta1]), Winding(x[models.Theta2])}
	if f.seen {
		for i := range turns {
			d := turns[i] - f.turns[i]
			if d < 0 {
				d = -d
			}
			f.count += d
		}
	}
	f.turns = turns
	f.seen = true
}

func (f *Flips) Value() float64 { return float64(f.count) }

func (f *Flips) Reset() {
	f.count = 0
	f.seen = false
}

// Winding returns the index of the 2π sector containing theta, with sector
// zero spanning [-π, π).
func Winding(theta float64) int {
	return int(math.Floor((theta + math.Pi) / (2 * math.Pi)))
}

package paint

import (
	"math"

	"github.com/san-kum/pendart/internal/models"
)

const (
	DefaultWidth  = 1000
	DefaultHeight = 800
	DefaultScale  = 200

	// GrabRadius is how close, in pixels, a press must land to pick a bob.
	GrabRadius = 40
)

// Bob identifies a draggable bob. NoBob means nothing is grabbed.
type Bob int

const (
	NoBob Bob = iota
	InnerBob
	OuterBob
)

// View maps world coordinates in metres to screen pixels. The pivot sits at
// the screen centre and both axes keep the world orientation, so y grows
// downward on screen as it does in the model.
type View struct {
	Width, Height int
	Scale         float64
}

func DefaultView() View {
	return View{Width: DefaultWidth, Height: DefaultHeight, Scale: DefaultScale}
}

func (v View) Origin() models.Vec2 {
	return models.Vec2{X: float64(v.Width / 2), Y: float64(v.Height / 2)}
}

func (v View) ToScreen(p models.Vec2) models.Vec2 {
	return v.Origin().Add(p.Scale(v.Scale))
}

func (v View) ToWorld(s models.Vec2) models.Vec2 {
	return s.Sub(v.Origin()).Scale(1 / v.Scale)
}

// Bobs returns both bob positions in screen pixels.
func (v View) Bobs(p models.Params, theta1, theta2 float64) (bob1, bob2 models.Vec2) {
	b1, b2 := models.Project(p, theta1, theta2)
	return v.ToScreen(b1), v.ToScreen(b2)
}

// Constrain pulls point back onto the circle of radius around anchor when it
// lies outside it. Points inside are returned unchanged.
func Constrain(point, anchor models.Vec2, radius float64) models.Vec2 {
	rel := point.Sub(anchor)
	d := rel.Len()
	if d <= radius || d == 0 {
		return point
	}
	return anchor.Add(rel.Scale(radius / d))
}

// Pick returns the bob under the cursor, preferring the inner bob when both
// are within GrabRadius.
func (v View) Pick(p models.Params, theta1, theta2 float64, cursor models.Vec2) Bob {
	bob1, bob2 := v.Bobs(p, theta1, theta2)
	switch {
	case cursor.Dist(bob1) < GrabRadius:
		return InnerBob
	case cursor.Dist(bob2) < GrabRadius:
		return OuterBob
	default:
		return NoBob
	}
}

// DragAngles returns the pose after dragging bob to cursor. The dragged bob
// stays within arm reach of its anchor; the other angle is unchanged.
func (v View) DragAngles(p models.Params, theta1, theta2 float64, bob Bob, cursor models.Vec2) (float64, float64) {
	switch bob {
	case InnerBob:
		pt := Constrain(cursor, v.Origin(), p.L1*v.Scale)
		if pt == v.Origin() {
			return theta1, theta2
		}
		return models.AngleOf(models.Vec2{}, v.ToWorld(pt)), theta2
	case OuterBob:
		anchor, _ := v.Bobs(p, theta1, theta2)
		pt := Constrain(cursor, anchor, p.L2*v.Scale)
		if pt == anchor {
			return theta1, theta2
		}
		return theta1, models.AngleOf(v.ToWorld(anchor), v.ToWorld(pt))
	default:
		return theta1, theta2
	}
}

// Fits reports whether the fully extended pendulum stays on screen.
func (v View) Fits(p models.Params) bool {
	reach := (p.L1 + p.L2) * v.Scale
	return reach <= math.Min(float64(v.Width), float64(v.Height))/2
}

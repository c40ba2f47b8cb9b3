package paint

import (
	"image/color"
	"math"
)

// PaletteSize is the number of colours bound to the keys 1..9.
const PaletteSize = 9

type Palette struct {
	Name   string
	Colors [PaletteSize]color.RGBA
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{r, g, b, 255} }

// Palettes returns the built-in palettes in display order. The first one is
// active when a host starts.
func Palettes() []Palette {
	return []Palette{
		{Name: "default", Colors: [PaletteSize]color.RGBA{
			rgb(255, 100, 100), rgb(100, 255, 100), rgb(100, 100, 255),
			rgb(255, 255, 100), rgb(255, 100, 255), rgb(100, 255, 255),
			rgb(255, 165, 0), rgb(160, 100, 255), rgb(255, 255, 255),
		}},
		{Name: "bright", Colors: [PaletteSize]color.RGBA{
			rgb(255, 50, 50), rgb(50, 255, 50), rgb(50, 50, 255),
			rgb(255, 255, 50), rgb(255, 50, 255), rgb(50, 255, 255),
			rgb(255, 150, 50), rgb(150, 50, 255), rgb(255, 255, 255),
		}},
		{Name: "rainbow", Colors: Rainbow()},
		{Name: "warm", Colors: [PaletteSize]color.RGBA{
			rgb(255, 0, 0), rgb(255, 69, 0), rgb(255, 140, 0),
			rgb(255, 165, 0), rgb(255, 215, 0), rgb(255, 255, 0),
			rgb(255, 255, 224), rgb(255, 192, 203), rgb(255, 255, 255),
		}},
		{Name: "cool", Colors: [PaletteSize]color.RGBA{
			rgb(0, 0, 255), rgb(0, 191, 255), rgb(0, 255, 255),
			rgb(0, 255, 127), rgb(0, 255, 0), rgb(127, 255, 212),
			rgb(138, 43, 226), rgb(75, 0, 130), rgb(255, 255, 255),
		}},
	}
}

// PaletteByName returns the named palette, or false.
func PaletteByName(name string) (Palette, bool) {
	for _, p := range Palettes() {
		if p.Name == name {
			return p, true
		}
	}
	return Palette{}, false
}

// PaletteNames lists palette names in display order.
func PaletteNames() []string {
	ps := Palettes()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// Key returns the colour bound to key 1..9.
func (p Palette) Key(k int) (color.RGBA, bool) {
	if k < 1 || k > PaletteSize {
		return color.RGBA{}, false
	}
	return p.Colors[k-1], true
}

// Rainbow spaces PaletteSize fully saturated hues evenly around the wheel.
func Rainbow() [PaletteSize]color.RGBA {
	var out [PaletteSize]color.RGBA
	for i := range out {
		out[i] = HSV(float64(i)/PaletteSize, 1, 1)
	}
	return out
}

// HSV converts hue, saturation and value in [0, 1] to an opaque colour.
func HSV(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	h *= 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

package config

import "math"

// Preset is a named starting pose with a suggested palette.
type Preset struct {
	Name        string
	Description string
	State       InitStateConfig
	Palette     string
}

var presets = []Preset{
	{
		Name:        "chaos",
		Description: "both arms near the top, unpredictable sweeps",
		State:       InitStateConfig{Theta1: 3.0, Theta2: 3.0},
		Palette:     "default",
	},
	{
		Name:        "figure-eight",
		Description: "periodic loops from a gentle outer push",
		State:       InitStateConfig{Theta1: 0.6, Theta2: -0.6, Omega2: 1.5},
		Palette:     "rainbow",
	},
	{
		Name:        "spiral",
		Description: "the outer arm winds while the inner arm swings",
		State:       InitStateConfig{Theta1: math.Pi / 2, Theta2: math.Pi, Omega1: 0.5},
		Palette:     "cool",
	},
	{
		Name:        "butterfly",
		Description: "mirrored wings from a horizontal start",
		State:       InitStateConfig{Theta1: math.Pi / 2, Theta2: math.Pi / 2},
		Palette:     "warm",
	},
	{
		Name:        "flower",
		Description: "petals traced by a spinning outer arm",
		State:       InitStateConfig{Theta1: 0.3, Theta2: 0, Omega2: 8},
		Palette:     "bright",
	},
	{
		Name:        "gentle",
		Description: "small swings close to the normal modes",
		State:       InitStateConfig{Theta1: 0.3, Theta2: 0.3},
		Palette:     "cool",
	},
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

func GetPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

func ListPresets() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

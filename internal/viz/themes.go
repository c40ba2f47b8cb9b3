package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the terminal view. Trail is the painted layer, Arms the
// pendulum overlay.
type Theme struct {
	Name   string
	Trail  lipgloss.Color
	Arms   lipgloss.Color
	Accent lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Warn   lipgloss.Color
	// SVG is the dot colour used when the canvas is saved.
	SVG string
}

var themes = []Theme{
	{
		Name:   "neon",
		Trail:  lipgloss.Color("#ff6464"),
		Arms:   lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#00ffff"),
		Text:   lipgloss.Color("#e0e0e0"),
		Muted:  lipgloss.Color("#666688"),
		Warn:   lipgloss.Color("#ff4444"),
		SVG:    "#ff6464",
	},
	{
		Name:   "retro",
		Trail:  lipgloss.Color("#00ff00"),
		Arms:   lipgloss.Color("#88ff88"),
		Accent: lipgloss.Color("#88ff88"),
		Text:   lipgloss.Color("#00ff00"),
		Muted:  lipgloss.Color("#005500"),
		Warn:   lipgloss.Color("#ffff00"),
		SVG:    "#00ff00",
	},
	{
		Name:   "ocean",
		Trail:  lipgloss.Color("#00a8cc"),
		Arms:   lipgloss.Color("#e0f0ff"),
		Accent: lipgloss.Color("#ffd700"),
		Text:   lipgloss.Color("#e0f0ff"),
		Muted:  lipgloss.Color("#4488aa"),
		Warn:   lipgloss.Color("#ff4444"),
		SVG:    "#00a8cc",
	},
	{
		Name:   "sunset",
		Trail:  lipgloss.Color("#feca57"),
		Arms:   lipgloss.Color("#fff5f5"),
		Accent: lipgloss.Color("#ff9ff3"),
		Text:   lipgloss.Color("#fff5f5"),
		Muted:  lipgloss.Color("#8b6b8c"),
		Warn:   lipgloss.Color("#ff4757"),
		SVG:    "#feca57",
	},
	{
		Name:   "mono",
		Trail:  lipgloss.Color("#ffffff"),
		Arms:   lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#888888"),
		Warn:   lipgloss.Color("#ffaa00"),
		SVG:    "#ffffff",
	},
}

// Themes returns the built-in themes in cycling order.
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// ThemeIndex returns the position of the named theme, or 0.
func ThemeIndex(name string) int {
	for i, t := range themes {
		if t.Name == name {
			return i
		}
	}
	return 0
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

type styles struct {
	trail, arms, header, label, value, warn, graph, help, panel lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		trail:  lipgloss.NewStyle().Foreground(t.Trail),
		arms:   lipgloss.NewStyle().Foreground(t.Arms),
		header: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		label:  lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:  lipgloss.NewStyle().Foreground(t.Text),
		warn:   lipgloss.NewStyle().Foreground(t.Warn).Bold(true),
		graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(40),
	}
}

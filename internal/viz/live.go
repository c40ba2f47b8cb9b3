package viz

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/metrics"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
	"github.com/san-kum/pendart/internal/sim"
)

const (
	canvasWidth    = 80
	canvasHeight   = 24
	energyCapacity = 600

	MinSpeed     = 1
	MaxSpeed     = 16
	DefaultSpeed = 2

	svgDotScale = 4
)

type TickMsg time.Time

type Options struct {
	Title   string
	Kick    float64
	Theme   string
	FPS     int
	SaveDir string
	Logger  *zap.Logger
}

// Model drives a session from the Bubble Tea event loop. The trail layer
// keeps what has been painted; the frame layer is redrawn every tick.
type Model struct {
	session  *sim.Session
	kick     float64
	view     paint.View
	trail    *Canvas
	frame    *Canvas
	painting bool
	speed    int
	energy   []float64
	e0       float64
	flips    *metrics.Flips
	theme    int
	showHelp bool
	status   string
	title    string
	saveDir  string
	interval time.Duration
	logger   *zap.Logger
}

// NewModel starts session if it is still in setup.
func NewModel(session *sim.Session, opts Options) (Model, error) {
	if session.Phase() == sim.PhaseSetup {
		if err := session.Start(opts.Kick); err != nil {
			return Model{}, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}
	title := opts.Title
	if title == "" {
		title = "pendart"
	}

	trail := NewCanvas(canvasWidth, canvasHeight)
	reach := session.Params().L1 + session.Params().L2
	view := paint.View{
		Width:  trail.DotsWide(),
		Height: trail.DotsHigh(),
		Scale:  0.45 * float64(min(trail.DotsWide(), trail.DotsHigh())) / reach,
	}

	m := Model{
		session:  session,
		kick:     opts.Kick,
		view:     view,
		trail:    trail,
		frame:    NewCanvas(canvasWidth, canvasHeight),
		painting: true,
		speed:    DefaultSpeed,
		energy:   make([]float64, 0, energyCapacity),
		e0:       session.Energy(),
		flips:    metrics.NewFlips(),
		theme:    ThemeIndex(opts.Theme),
		title:    title,
		saveDir:  opts.SaveDir,
		interval: time.Second / time.Duration(fps),
		logger:   logger,
	}
	m.flips.Observe(session.State(), 0)
	m.draw()
	return m, nil
}

// Run blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.painting = !m.painting
		case "p":
			m.session.TogglePause()
		case "r":
			m.restart()
		case "c":
			m.trail.Clear()
			m.status = "cleared"
		case "+", "=":
			m.speed = min(MaxSpeed, m.speed*2)
		case "-", "_":
			m.speed = max(MinSpeed, m.speed/2)
		case "t":
			m.theme = (m.theme + 1) % len(themes)
		case "s":
			m.saveSVG()
		case "?":
			m.showHelp = !m.showHelp
		}
		m.draw()
	case TickMsg:
		m.advance()
		m.draw()
		return m, m.tick()
	}
	return m, nil
}

// advance steps the session speed times, painting the outer bob after each
// step while painting is on.
func (m *Model) advance() {
	if m.session.Phase() != sim.PhaseRunning {
		return
	}
	params := m.session.Params()
	for i := 0; i < m.speed; i++ {
		if err := m.session.Step(); err != nil {
			m.status = "diverged, press r"
			break
		}
		x := m.session.State()
		m.flips.Observe(x, m.session.Time())
		if m.painting {
			_, tip := m.view.Bobs(params, x[models.Theta1], x[models.Theta2])
			m.trail.Set(int(math.Round(tip.X)), int(math.Round(tip.Y)))
		}
	}

	m.energy = append(m.energy, m.session.Energy())
	if len(m.energy) > energyCapacity {
		m.energy = m.energy[1:]
	}
}

// restart returns to the initial pose and starts again with the same kick.
// The painting is kept.
func (m *Model) restart() {
	m.session.Reset()
	if err := m.session.Start(m.kick); err != nil {
		m.status = err.Error()
		return
	}
	m.energy = m.energy[:0]
	m.e0 = m.session.Energy()
	m.flips.Reset()
	m.flips.Observe(m.session.State(), 0)
	m.status = "restarted"
}

func (m *Model) saveSVG() {
	name := fmt.Sprintf("pendart-%s.svg", time.Now().Format("20060102-150405"))
	path := filepath.Join(m.saveDir, name)

	svg := export.BrailleToSVG(m.trail.Grid, svgDotScale, themes[m.theme].SVG)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		m.status = err.Error()
		return
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		m.status = err.Error()
		m.logger.Error("save svg", zap.String("path", path), zap.Error(err))
		return
	}
	m.status = "saved " + path
	m.logger.Info("saved svg", zap.String("path", path), zap.Int("dots", m.trail.Dots()))
}

// draw redraws the pendulum overlay.
func (m *Model) draw() {
	m.frame.Clear()
	x := m.session.State()
	pivot := m.view.Origin()
	bob1, bob2 := m.view.Bobs(m.session.Params(), x[models.Theta1], x[models.Theta2])

	px, py := roundPt(pivot)
	x1, y1 := roundPt(bob1)
	x2, y2 := roundPt(bob2)
	m.frame.DrawLine(px, py, x1, y1)
	m.frame.DrawLine(x1, y1, x2, y2)
	m.frame.Disc(x1, y1, 1)
	m.frame.Disc(x2, y2, 2)
}

func roundPt(p models.Vec2) (int, int) {
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// drift is the energy change relative to the pendulum's energy scale.
func (m Model) drift() float64 {
	ref := math.Max(math.Abs(m.e0), m.session.Model().EnergyScale())
	return math.Abs(m.session.Energy()-m.e0) / ref
}

func (m Model) statusLine(st styles) string {
	switch m.session.Phase() {
	case sim.PhaseDiverged:
		return st.warn.Render("DIVERGED")
	case sim.PhasePaused:
		return st.value.Render("PAUSED")
	default:
		return st.value.Render("RUNNING")
	}
}

// renderCanvas colours arms over the trail, grouping runs of cells that
// share a layer into one styled string.
func (m Model) renderCanvas(st styles) string {
	var b strings.Builder
	for row := 0; row < m.trail.Height; row++ {
		var run strings.Builder
		layer := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			switch layer {
			case 1:
				b.WriteString(st.arms.Render(run.String()))
			case 2:
				b.WriteString(st.trail.Render(run.String()))
			default:
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := 0; col < m.trail.Width; col++ {
			f, t := m.frame.Grid[row][col], m.trail.Grid[row][col]
			cellLayer, r := 0, t
			switch {
			case f != brailleBlank:
				cellLayer, r = 1, f|t
			case t != brailleBlank:
				cellLayer = 2
			}
			if cellLayer != layer {
				flush()
				layer = cellLayer
			}
			run.WriteRune(r)
		}
		flush()
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) View() string {
	theme := themes[m.theme]
	st := theme.styles()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.statusLine(st) + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.session.Time()))
	row("Energy", fmt.Sprintf("%.3f J", m.session.Energy()))
	row("Drift", fmt.Sprintf("%.4f%%", 100*m.drift()))
	row("Flips", fmt.Sprintf("%.0f", m.flips.Value()))
	row("Speed", fmt.Sprintf("%dx", m.speed))
	if m.painting {
		row("Paint", "on")
	} else {
		row("Paint", "off")
	}
	row("Theme", theme.Name)
	if m.status != "" {
		s.WriteString("\n" + st.label.Render(m.status) + "\n")
	}

	s.WriteString(st.help.Render("SP:Paint P:Pause R:Restart C:Clear\n+/-:Speed T:Theme S:SVG ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Padding(1, 2).Render(m.renderCanvas(st)),
		st.panel.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space  - Toggle painting            ║
║  P      - Pause/Resume               ║
║  R      - Restart from initial pose  ║
║  C      - Clear painting             ║
║  + / -  - Faster / slower            ║
║  T      - Cycle themes               ║
║  S      - Save painting as SVG       ║
║  ?      - Toggle this help           ║
║  Q      - Quit                       ║
╚══════════════════════════════════════╝`

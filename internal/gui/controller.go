package gui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/pendart/internal/export"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
	"github.com/san-kum/pendart/internal/sim"
)

// Action is a keyboard command, independent of the window toolkit.
type Action int

const (
	ActionPause Action = iota
	ActionReset
	ActionClear
	ActionToggleArms
	ActionSave
	ActionHelp
	ActionBrushGrow
	ActionBrushShrink
	ActionDenser
	ActionSparser
	ActionNextPalette
	ActionQuit
	// ActionColor1 + k-1 selects colour key k.
	ActionColor1
)

// Input is what the host read from the window this frame.
type Input struct {
	Cursor        models.Vec2
	MousePressed  bool
	MouseDown     bool
	MouseReleased bool
	// Spraying is true while the paint key is held.
	Spraying bool
	Actions  []Action
}

type Options struct {
	Kick     float64
	Brush    paint.Brush
	Palette  string
	ColorKey int
	FPS      int
	SaveDir  string
	Seed     uint64
	Logger   *zap.Logger
}

// Controller owns the painting session: it turns per-frame input into
// session transitions and spray on the canvas.
type Controller struct {
	session  *sim.Session
	view     paint.View
	canvas   *paint.Canvas
	brush    paint.Brush
	palettes []paint.Palette
	palette  int
	colorKey int
	kick     float64

	stepsPerFrame int
	dragging      paint.Bob
	hover         paint.Bob
	showArms      bool
	showHelp      bool
	quit          bool
	status        string

	rng     *rand.Rand
	saveDir string
	logger  *zap.Logger
}

func NewController(session *sim.Session, view paint.View, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fps := opts.FPS
	if fps <= 0 {
		fps = 60
	}

	c := &Controller{
		session:       session,
		view:          view,
		canvas:        paint.NewCanvas(view.Width, view.Height),
		brush:         opts.Brush,
		palettes:      paint.Palettes(),
		colorKey:      opts.ColorKey,
		kick:          opts.Kick,
		stepsPerFrame: max(1, int(math.Round(1/(session.Dt()*float64(fps))))),
		showArms:      true,
		rng:           rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
		saveDir:       opts.SaveDir,
		logger:        logger,
	}
	if c.brush.Size == 0 {
		c.brush = paint.DefaultBrush()
	}
	for i, p := range c.palettes {
		if p.Name == opts.Palette {
			c.palette = i
		}
	}
	if c.colorKey < 1 || c.colorKey > paint.PaletteSize {
		c.colorKey = paint.PaletteSize
	}
	c.selectColor(c.colorKey)
	return c
}

func (c *Controller) Session() *sim.Session  { return c.session }
func (c *Controller) View() paint.View       { return c.view }
func (c *Controller) Canvas() *paint.Canvas  { return c.canvas }
func (c *Controller) Brush() paint.Brush     { return c.brush }
func (c *Controller) Palette() paint.Palette { return c.palettes[c.palette] }
func (c *Controller) ColorKey() int          { return c.colorKey }
func (c *Controller) ShowArms() bool         { return c.showArms }
func (c *Controller) ShowHelp() bool         { return c.showHelp }
func (c *Controller) Quit() bool             { return c.quit }
func (c *Controller) Status() string         { return c.status }
func (c *Controller) Hover() paint.Bob       { return c.hover }
func (c *Controller) Dragging() paint.Bob    { return c.dragging }
func (c *Controller) StepsPerFrame() int     { return c.stepsPerFrame }

// Bobs returns both bob positions in screen pixels.
func (c *Controller) Bobs() (models.Vec2, models.Vec2) {
	x := c.session.State()
	return c.view.Bobs(c.session.Params(), x[models.Theta1], x[models.Theta2])
}

// Update applies one frame of input and advances the simulation.
func (c *Controller) Update(in Input) {
	for _, a := range in.Actions {
		c.apply(a)
	}

	switch c.session.Phase() {
	case sim.PhaseSetup:
		c.updateSetup(in)
	default:
		if in.MousePressed {
			c.session.Reset()
			c.status = "setup"
			return
		}
		c.advance(in.Spraying)
	}
}

func (c *Controller) updateSetup(in Input) {
	x := c.session.State()
	theta1, theta2 := x[models.Theta1], x[models.Theta2]
	params := c.session.Params()

	c.hover = c.view.Pick(params, theta1, theta2, in.Cursor)

	if in.MousePressed {
		if c.hover == paint.NoBob {
			if err := c.session.Start(c.kick); err != nil {
				c.status = err.Error()
				return
			}
			c.status = ""
			c.logger.Debug("started", zap.Float64("theta1", theta1), zap.Float64("theta2", theta2))
			return
		}
		c.dragging = c.hover
	}

	if c.dragging != paint.NoBob && in.MouseDown {
		t1, t2 := c.view.DragAngles(params, theta1, theta2, c.dragging, in.Cursor)
		if err := c.session.SetAngles(t1, t2); err != nil {
			c.status = err.Error()
		}
	}
	if in.MouseReleased {
		c.dragging = paint.NoBob
	}
}

func (c *Controller) advance(spraying bool) {
	if c.session.Phase() != sim.PhaseRunning {
		return
	}
	if err := c.session.Advance(c.stepsPerFrame); err != nil {
		c.status = "diverged, click to reset"
		return
	}
	if spraying {
		_, tip := c.Bobs()
		c.canvas.Spray(tip.X, tip.Y, c.brush, c.rng)
	}
}

func (c *Controller) apply(a Action) {
	switch {
	case a == ActionPause:
		c.session.TogglePause()
	case a == ActionReset:
		c.session.Reset()
		c.dragging = paint.NoBob
	case a == ActionClear:
		c.canvas.Clear()
	case a == ActionToggleArms:
		c.showArms = !c.showArms
	case a == ActionSave:
		c.save()
	case a == ActionHelp:
		c.showHelp = !c.showHelp
	case a == ActionBrushGrow:
		c.brush.Grow()
	case a == ActionBrushShrink:
		c.brush.Shrink()
	case a == ActionDenser:
		c.brush.Denser()
	case a == ActionSparser:
		c.brush.Sparser()
	case a == ActionNextPalette:
		c.palette = (c.palette + 1) % len(c.palettes)
		c.selectColor(c.colorKey)
	case a == ActionQuit:
		c.quit = true
	case a >= ActionColor1 && a < ActionColor1+paint.PaletteSize:
		c.selectColor(int(a-ActionColor1) + 1)
	}
}

func (c *Controller) selectColor(key int) {
	if col, ok := c.palettes[c.palette].Key(key); ok {
		c.colorKey = key
		c.brush.Color = col
	}
}

// save writes the painting over black, leaving the pendulum out.
func (c *Controller) save() {
	name := fmt.Sprintf("pendart-%s.png", time.Now().Format("20060102-150405"))
	path := filepath.Join(c.saveDir, name)
	if err := export.SaveImage(path, c.canvas.Flatten(color.Black)); err != nil {
		c.status = err.Error()
		c.logger.Error("save painting", zap.String("path", path), zap.Error(err))
		return
	}
	c.status = "saved " + path
	c.logger.Info("saved painting", zap.String("path", path))
}

// Pixels converts premultiplied canvas pixels into straight-alpha colours
// for texture upload, reusing buf when it is large enough.
func Pixels(img *image.RGBA, buf []color.RGBA) []color.RGBA {
	n := len(img.Pix) / 4
	if cap(buf) < n {
		buf = make([]color.RGBA, n)
	}
	buf = buf[:n]
	for i := range buf {
		p := img.Pix[4*i : 4*i+4 : 4*i+4]
		a := p[3]
		switch a {
		case 0:
			buf[i] = color.RGBA{}
		case 255:
			buf[i] = color.RGBA{p[0], p[1], p[2], 255}
		default:
			buf[i] = color.RGBA{
				R: uint8(uint16(p[0]) * 255 / uint16(a)),
				G: uint8(uint16(p[1]) * 255 / uint16(a)),
				B: uint8(uint16(p[2]) * 255 / uint16(a)),
				A: a,
			}
		}
	}
	return buf
}

package window

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/pendart/internal/gui"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
	"github.com/san-kum/pendart/internal/sim"
)

var (
	colBg      = rl.NewColor(0, 0, 0, 255)
	colArm     = rl.NewColor(180, 180, 180, 255)
	colBob     = rl.NewColor(255, 255, 255, 255)
	colHover   = rl.NewColor(255, 200, 80, 255)
	colText    = rl.NewColor(140, 140, 140, 255)
	colTextDim = rl.NewColor(60, 60, 60, 255)
)

const (
	bobRadius = 10
	armWidth  = 3
	fontSize  = 18
)

var keyActions = []struct {
	key    int32
	action gui.Action
}{
	{rl.KeyP, gui.ActionPause},
	{rl.KeyR, gui.ActionReset},
	{rl.KeyC, gui.ActionClear},
	{rl.KeyV, gui.ActionToggleArms},
	{rl.KeyS, gui.ActionSave},
	{rl.KeyH, gui.ActionHelp},
	{rl.KeyEqual, gui.ActionBrushGrow},
	{rl.KeyKpAdd, gui.ActionBrushGrow},
	{rl.KeyMinus, gui.ActionBrushShrink},
	{rl.KeyKpSubtract, gui.ActionBrushShrink},
	{rl.KeyRightBracket, gui.ActionDenser},
	{rl.KeyLeftBracket, gui.ActionSparser},
	{rl.KeyTab, gui.ActionNextPalette},
	{rl.KeyQ, gui.ActionQuit},
}

// App is the raylib window around a gui.Controller.
type App struct {
	ctl    *gui.Controller
	tex    rl.Texture2D
	pixels []color.RGBA
	fps    int32
}

func NewApp(ctl *gui.Controller, fps int) *App {
	if fps <= 0 {
		fps = 60
	}
	return &App{ctl: ctl, fps: int32(fps)}
}

// Run opens the window and blocks until it is closed.
func (a *App) Run() {
	v := a.ctl.View()
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(v.Width), int32(v.Height), "pendart")
	defer rl.CloseWindow()
	rl.SetTargetFPS(a.fps)
	rl.SetExitKey(rl.KeyEscape)

	img := rl.NewImageFromImage(a.ctl.Canvas().Image())
	a.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(a.tex)

	for !rl.WindowShouldClose() && !a.ctl.Quit() {
		a.ctl.Update(readInput())
		a.draw()
	}
}

func readInput() gui.Input {
	m := rl.GetMousePosition()
	in := gui.Input{
		Cursor:        models.Vec2{X: float64(m.X), Y: float64(m.Y)},
		MousePressed:  rl.IsMouseButtonPressed(rl.MouseButtonLeft),
		MouseDown:     rl.IsMouseButtonDown(rl.MouseButtonLeft),
		MouseReleased: rl.IsMouseButtonReleased(rl.MouseButtonLeft),
		Spraying:      rl.IsKeyDown(rl.KeySpace),
	}
	for _, ka := range keyActions {
		if rl.IsKeyPressed(ka.key) {
			in.Actions = append(in.Actions, ka.action)
		}
	}
	for k := int32(0); k < paint.PaletteSize; k++ {
		if rl.IsKeyPressed(rl.KeyOne + k) {
			in.Actions = append(in.Actions, gui.ActionColor1+gui.Action(k))
		}
	}
	return in
}

func vec(p models.Vec2) rl.Vector2 {
	return rl.NewVector2(float32(p.X), float32(p.Y))
}

func (a *App) draw() {
	a.pixels = gui.Pixels(a.ctl.Canvas().Image(), a.pixels)
	rl.UpdateTexture(a.tex, a.pixels)

	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(colBg)
	rl.DrawTexture(a.tex, 0, 0, rl.White)

	if a.ctl.ShowArms() || a.ctl.Session().Phase() == sim.PhaseSetup {
		a.drawPendulum()
	}
	a.drawHUD()
	if a.ctl.ShowHelp() {
		a.drawHelp()
	}
}

func (a *App) drawPendulum() {
	pivot := vec(a.ctl.View().Origin())
	b1, b2 := a.ctl.Bobs()
	p1, p2 := vec(b1), vec(b2)

	rl.DrawLineEx(pivot, p1, armWidth, colArm)
	rl.DrawLineEx(p1, p2, armWidth, colArm)
	rl.DrawCircleV(pivot, 4, colArm)

	c1, c2 := colBob, colBob
	if a.ctl.Session().Phase() == sim.PhaseSetup {
		switch max(a.ctl.Hover(), a.ctl.Dragging()) {
		case paint.InnerBob:
			c1 = colHover
		case paint.OuterBob:
			c2 = colHover
		}
	}
	rl.DrawCircleV(p1, bobRadius, c1)
	rl.DrawCircleV(p2, bobRadius, a.ctl.Brush().Color)
	rl.DrawCircleLinesV(p2, bobRadius, c2)
}

func (a *App) drawHUD() {
	s := a.ctl.Session()
	b := a.ctl.Brush()

	var phase string
	switch s.Phase() {
	case sim.PhaseSetup:
		phase = "SETUP  drag a bob, click to start"
	case sim.PhaseDiverged:
		phase = "DIVERGED  click to reset"
	default:
		phase = fmt.Sprintf("%s  t=%.1fs", s.Phase(), s.Time())
	}
	rl.DrawText(phase, 12, 12, fontSize, colText)

	line := fmt.Sprintf("%s #%d  brush %d  particles %d", a.ctl.Palette().Name, a.ctl.ColorKey(), b.Size, b.Particles)
	rl.DrawText(line, 12, 36, fontSize, colText)
	rl.DrawRectangle(12+rl.MeasureText(line, fontSize)+10, 36, fontSize, fontSize, b.Color)

	if msg := a.ctl.Status(); msg != "" {
		rl.DrawText(msg, 12, int32(a.ctl.View().Height)-30, fontSize, colText)
	}
	rl.DrawText("H help", int32(a.ctl.View().Width)-80, 12, fontSize, colTextDim)
}

var helpLines = []string{
	"Space   hold to paint",
	"P       pause / resume",
	"R       back to setup",
	"C       clear canvas",
	"V       show / hide pendulum",
	"S       save PNG",
	"1-9     colour",
	"+ / -   brush size",
	"[ / ]   spray density",
	"Tab     next palette",
	"Click   start, or reset while running",
	"H       close help",
	"Q / Esc quit",
}

func (a *App) drawHelp() {
	x, y := int32(a.ctl.View().Width/2-200), int32(a.ctl.View().Height/2-150)
	rl.DrawRectangle(x-20, y-20, 440, int32(len(helpLines))*24+40, rl.Fade(colBg, 0.85))
	for i, l := range helpLines {
		rl.DrawText(l, x, y+int32(i)*24, fontSize, colBob)
	}
}

package export

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"git.sr.ht/~sbinet/gg"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pendart/internal/analysis"
	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/models"
)

const plotDPI = 96

var traceColor = color.RGBA{R: 255, G: 100, B: 100, A: 255}

// SavePlotPNG renders p at widthIn x heightIn inches.
func SavePlotPNG(p *plot.Plot, widthIn, heightIn float64, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(plotDPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

// LinePlot builds a single-series line plot.
func LinePlot(title, xlabel, ylabel string, xs, ys []float64) (*plot.Plot, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return nil, fmt.Errorf("plot data invalid: %d x values, %d y values", len(xs), len(ys))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	return p, nil
}

// TracePlot draws the path of the outer bob. The y axis is flipped so the
// picture matches the screen.
func TracePlot(params models.Params, states []dynamo.State) (*plot.Plot, error) {
	if len(states) < 2 {
		return nil, fmt.Errorf("need at least 2 states, got %d", len(states))
	}

	pts := make(plotter.XYs, len(states))
	for i, x := range states {
		_, tip := models.Project(params, x[models.Theta1], x[models.Theta2])
		pts[i].X = tip.X
		pts[i].Y = -tip.Y
	}

	p := plot.New()
	p.Title.Text = "Outer bob trace"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "height (m)"

	reach := params.L1 + params.L2
	p.X.Min, p.X.Max = -reach, reach
	p.Y.Min, p.Y.Max = -reach, reach

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = traceColor
	line.LineStyle.Width = vg.Points(0.8)
	p.Add(line)
	return p, nil
}

// EnergyPlot shows total energy over the recorded trajectory.
func EnergyPlot(sys dynamo.Hamiltonian, result *dynamo.Result) (*plot.Plot, error) {
	energies := make([]float64, len(result.States))
	for i, x := range result.States {
		energies[i] = sys.Energy(x)
	}
	return LinePlot("Total energy", "time (s)", "E (J)", result.Times, energies)
}

// PoincarePlot scatters section points.
func PoincarePlot(section *analysis.PoincareSection, xlabel, ylabel string) (*plot.Plot, error) {
	if section == nil || len(section.Points) == 0 {
		return nil, fmt.Errorf("empty Poincaré section")
	}

	pts := make(plotter.XYs, len(section.Points))
	for i, pt := range section.Points {
		pts[i].X = pt.X
		pts[i].Y = pt.Y
	}

	p := plot.New()
	p.Title.Text = "Poincaré section"
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(1)
	s.GlyphStyle.Color = traceColor
	p.Add(s)
	return p, nil
}

// SaveImage writes img as PNG, creating parent directories.
func SaveImage(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

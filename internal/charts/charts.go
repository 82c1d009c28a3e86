package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

// ErrNoData is returned when a chart has nothing to draw.
var ErrNoData = errors.New("no data to chart")

// ContentType is the media type of every rendered chart.
const ContentType = "image/svg+xml"

// Options controls chart sizes. Width and Height apply to single charts, panel
// charts are drawn at twice the height.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the sizes used when none are configured.
func DefaultOptions() Options {
	return Options{Width: 900, Height: 420}
}

// Renderer draws dashboard charts as SVG.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer. Zero sizes fall back to DefaultOptions.
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) width() vg.Length  { return vg.Points(float64(r.opts.Width)) }
func (r *Renderer) height() vg.Length { return vg.Points(float64(r.opts.Height)) }

// writePlot renders a single gonum plot as SVG.
func (r *Renderer) writePlot(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(r.width(), r.height(), "svg")
	if err != nil {
		return fmt.Errorf("create svg writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// writePanels renders plots on a 2x2 grid in one SVG document.
func (r *Renderer) writePanels(w io.Writer, panels [4]*plot.Plot) error {
	canvas := vgsvg.New(r.width(), 2*r.height())
	dc := draw.New(canvas)

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	grid := [][]*plot.Plot{
		{panels[0], panels[1]},
		{panels[2], panels[3]},
	}
	canvases := plot.Align(grid, tiles, dc)
	for j := range grid {
		for i := range grid[j] {
			grid[j][i].Draw(canvases[j][i])
		}
	}

	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// parseColor turns "#rrggbb" into a color. Anything unparseable becomes gray.
func parseColor(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.RGBA{R: 127, G: 127, B: 127, A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// chartColor converts a site color for go-chart.
func chartColor(hex string) drawing.Color {
	c := parseColor(hex)
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// finiteOrZero keeps NaN means from reaching the plotters, which reject them.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

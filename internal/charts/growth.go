package charts

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"ecdash/internal/analytics"
	"ecdash/pkg/contracts/domain"
)

// GrowthByEC draws the four growth panels grouped by target EC. Each bar takes
// the color of the site growing at that EC.
func (r *Renderer) GrowthByEC(w io.Writer, groups []analytics.ECGroup) error {
	if len(groups) == 0 {
		return ErrNoData
	}

	names := make([]string, len(groups))
	colors := make([]color.RGBA, len(groups))
	for i, g := range groups {
		names[i] = fmt.Sprintf("EC %g", g.EC)
		colors[i] = parseColor(colorForEC(g.EC))
	}

	fw, err := siteBars("평균 생중량", "g", names, colors, func(i int) float64 { return groups[i].MeanFreshWeight })
	if err != nil {
		return err
	}
	leaves, err := siteBars("평균 잎 수", "장", names, colors, func(i int) float64 { return groups[i].MeanLeafCount })
	if err != nil {
		return err
	}
	shoot, err := siteBars("평균 지상부 길이", "mm", names, colors, func(i int) float64 { return groups[i].MeanShootLength })
	if err != nil {
		return err
	}
	count, err := siteBars("개체수", "개", names, colors, func(i int) float64 { return float64(groups[i].Count) })
	if err != nil {
		return err
	}

	return r.writePanels(w, [4]*plot.Plot{fw, leaves, shoot, count})
}

func colorForEC(ec float64) string {
	for _, s := range domain.Sites() {
		if s.TargetEC == ec {
			return s.Color
		}
	}
	return domain.ColorFor("")
}

// FreshWeightBoxPlot draws one box per growth sheet. Sheets without any fresh
// weight keep their slot on the axis but get no box.
func (r *Renderer) FreshWeightBoxPlot(w io.Writer, dists []analytics.SiteDistribution) error {
	p := plot.New()
	p.Title.Text = "학교별 생중량 분포"
	p.Y.Label.Text = "생중량(g)"

	names := make([]string, len(dists))
	drawn := 0
	for i, d := range dists {
		names[i] = d.Site
		if len(d.Values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(28), float64(i), plotter.Values(d.Values))
		if err != nil {
			return fmt.Errorf("%s box plot: %w", d.Site, err)
		}
		box.FillColor = parseColor(d.Color)
		p.Add(box)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}
	p.NominalX(names...)

	return r.writePlot(w, p)
}

// Scatter draws fresh weight against another growth measure, one colored
// series per sheet.
func (r *Renderer) Scatter(w io.Writer, title, xLabel string, scatters []analytics.SiteScatter) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "생중량(g)"
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, s := range scatters {
		if len(s.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			xys[i].X = pt.X
			xys[i].Y = pt.Y
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("%s scatter: %w", s.Site, err)
		}
		sc.GlyphStyle.Color = parseColor(s.Color)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add(s.Site, sc)
		drawn++
	}
	if drawn == 0 {
		return ErrNoData
	}
	p.Legend.Top = true

	return r.writePlot(w, p)
}

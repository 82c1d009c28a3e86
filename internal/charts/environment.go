package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"ecdash/internal/analytics"
)

// EnvironmentAverages draws the four environment panels: temperature, humidity,
// pH, and target against measured EC.
func (r *Renderer) EnvironmentAverages(w io.Writer, averages []analytics.SiteAverage) error {
	if len(averages) == 0 {
		return ErrNoData
	}

	names := make([]string, len(averages))
	colors := make([]color.RGBA, len(averages))
	for i, a := range averages {
		names[i] = a.Site
		colors[i] = parseColor(a.Color)
	}

	temp, err := siteBars("평균 온도", "°C", names, colors, func(i int) float64 { return averages[i].Temperature })
	if err != nil {
		return err
	}
	hum, err := siteBars("평균 습도", "%", names, colors, func(i int) float64 { return averages[i].Humidity })
	if err != nil {
		return err
	}
	ph, err := siteBars("평균 pH", "pH", names, colors, func(i int) float64 { return averages[i].PH })
	if err != nil {
		return err
	}
	ec, err := ecComparison(averages)
	if err != nil {
		return err
	}

	return r.writePanels(w, [4]*plot.Plot{temp, hum, ph, ec})
}

// siteBars draws one bar per site, each in the site's color.
func siteBars(title, unit string, names []string, colors []color.RGBA, value func(int) float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = unit

	for i := range names {
		bars, err := plotter.NewBarChart(plotter.Values{finiteOrZero(value(i))}, vg.Points(28))
		if err != nil {
			return nil, fmt.Errorf("%s bars: %w", title, err)
		}
		bars.XMin = float64(i)
		bars.Color = colors[i]
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalX(names...)
	p.Y.Min = 0
	return p, nil
}

// ecComparison places target and measured EC side by side for each site.
func ecComparison(averages []analytics.SiteAverage) (*plot.Plot, error) {
	target := make(plotter.Values, len(averages))
	measured := make(plotter.Values, len(averages))
	names := make([]string, len(averages))
	for i, a := range averages {
		target[i] = finiteOrZero(a.ECTarget)
		measured[i] = finiteOrZero(a.ECMeasured)
		names[i] = a.Site
	}

	p := plot.New()
	p.Title.Text = "목표 EC vs 실측 EC"
	p.Y.Label.Text = "EC"

	width := vg.Points(16)
	tb, err := plotter.NewBarChart(target, width)
	if err != nil {
		return nil, fmt.Errorf("target ec bars: %w", err)
	}
	tb.Color = color.RGBA{R: 189, G: 189, B: 189, A: 255}
	tb.LineStyle.Width = vg.Length(0)
	tb.Offset = -width / 2

	mb, err := plotter.NewBarChart(measured, width)
	if err != nil {
		return nil, fmt.Errorf("measured ec bars: %w", err)
	}
	mb.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	mb.LineStyle.Width = vg.Length(0)
	mb.Offset = width / 2

	p.Add(tb, mb)
	p.Legend.Add("목표 EC", tb)
	p.Legend.Add("실측 EC", mb)
	p.Legend.Top = true
	p.NominalX(names...)
	p.Y.Min = 0
	return p, nil
}

// TimeSeries draws temperature and humidity on the left axis and measured EC
// with its dashed target line on the right axis.
func (r *Renderer) TimeSeries(w io.Writer, s analytics.SiteSeries) error {
	if len(s.Points) == 0 {
		return ErrNoData
	}

	temp := timeSeries("온도(°C)", s.Points, func(p analytics.SeriesPoint) float64 { return p.Temperature })
	temp.Style = chart.Style{StrokeColor: chartColor("#d62728"), StrokeWidth: 1.5}
	hum := timeSeries("습도(%)", s.Points, func(p analytics.SeriesPoint) float64 { return p.Humidity })
	hum.Style = chart.Style{StrokeColor: chartColor("#1f77b4"), StrokeWidth: 1.5}
	ec := timeSeries("EC", s.Points, func(p analytics.SeriesPoint) float64 { return p.EC })
	ec.Style = chart.Style{StrokeColor: chartColor(s.Color), StrokeWidth: 2}
	ec.YAxis = chart.YAxisSecondary

	first, last := temp.XValues[0], temp.XValues[len(temp.XValues)-1]
	target := chart.TimeSeries{
		Name:    "목표 EC",
		XValues: []time.Time{first, last},
		YValues: []float64{s.TargetEC, s.TargetEC},
		Style: chart.Style{
			StrokeColor:     chart.ColorBlack,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5, 5},
		},
		YAxis: chart.YAxisSecondary,
	}

	leftMin, leftMax := seriesRange(temp.YValues, hum.YValues)
	rightMin, rightMax := seriesRange(ec.YValues, target.YValues)

	ch := chart.Chart{
		Title:      fmt.Sprintf("%s 환경 변화", s.Site),
		Width:      r.opts.Width,
		Height:     r.opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{ValueFormatter: chart.TimeMinuteValueFormatter},
		YAxis: chart.YAxis{
			Name:  "온도 / 습도",
			Range: &chart.ContinuousRange{Min: leftMin, Max: leftMax},
		},
		YAxisSecondary: chart.YAxis{
			Name:  "EC",
			Range: &chart.ContinuousRange{Min: rightMin, Max: rightMax},
		},
		Series: []chart.Series{temp, hum, ec, target},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render %s time series: %w", s.Site, err)
	}
	return nil
}

// timeSeries drops missing values. Readings that all share one timestamp are
// stretched over one minute because the x range cannot be zero.
func timeSeries(name string, points []analytics.SeriesPoint, value func(analytics.SeriesPoint) float64) chart.TimeSeries {
	ts := chart.TimeSeries{Name: name}
	for _, p := range points {
		v := value(p)
		if math.IsNaN(v) {
			continue
		}
		ts.XValues = append(ts.XValues, p.Time)
		ts.YValues = append(ts.YValues, v)
	}
	if len(ts.XValues) == 0 {
		t := points[0].Time
		ts.XValues = []time.Time{t, t.Add(time.Minute)}
		ts.YValues = []float64{0, 0}
		return ts
	}
	if singleInstant(ts.XValues) {
		last := len(ts.XValues) - 1
		ts.XValues = append(ts.XValues, ts.XValues[last].Add(time.Minute))
		ts.YValues = append(ts.YValues, ts.YValues[last])
	}
	return ts
}

func singleInstant(times []time.Time) bool {
	for _, t := range times[1:] {
		if !t.Equal(times[0]) {
			return false
		}
	}
	return true
}

// seriesRange pads the combined value range so that flat series still render.
func seriesRange(values ...[]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range values {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return lo - pad, hi + pad
}

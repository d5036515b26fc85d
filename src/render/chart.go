// Package render draws signal comparison charts with go-chart.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	XAxisLabel = "Index (Time step)"
	YAxisLabel = "Value"
)

// Options fixes the canvas. Width and Height are in inches.
type Options struct {
	WidthIn  float64
	HeightIn float64
	DPI      float64
}

// DefaultOptions is a 10x6 inch canvas at 100 dpi.
func DefaultOptions() Options {
	return Options{WidthIn: 10, HeightIn: 6, DPI: 100}
}

// Pixels returns the canvas size in pixels.
func (o Options) Pixels() (int, int) {
	return int(math.Round(o.WidthIn * o.DPI)), int(math.Round(o.HeightIn * o.DPI))
}

// Line is one named series plotted against its row index.
type Line struct {
	Name   string
	Values []float64
}

// Title is the chart title for comparing column a against column b.
func Title(a, b string) string {
	return fmt.Sprintf("Comparison of %s and %s", a, b)
}

var gridStyle = chart.Style{
	StrokeColor: drawing.ColorFromHex("dddddd"),
	StrokeWidth: 1,
}

// Comparison builds a chart with one line per input, x = 0-based row index,
// y = raw value, a legend naming each line and a major grid.
//
// NaN values are gaps: a line is split into segments around them. Every
// segment of a line shares its colour and only the first carries the name, so
// the legend has one entry per line. A line with no finite values (including
// a 0-row column) still gets its legend entry; with no data at all the chart
// is empty labelled axes.
func Comparison(title string, opts Options, lines ...Line) (chart.Chart, error) {
	if len(lines) == 0 {
		return chart.Chart{}, errors.New("no series to plot")
	}
	maxLen := 0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		if len(l.Values) > maxLen {
			maxLen = len(l.Values)
		}
		for _, v := range l.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	yr := yRange(lo, hi)

	var series []chart.Series
	for i, l := range lines {
		style := chart.Style{
			StrokeColor: chart.GetDefaultColor(i),
			StrokeWidth: chart.DefaultSeriesLineWidth,
		}
		segs := segments(l.Values)
		if len(segs) == 0 {
			// Legend entry only: a single point strokes nothing.
			segs = []segment{{xs: []float64{0}, ys: []float64{(yr.Min + yr.Max) / 2}}}
		}
		for j, sg := range segs {
			cs := chart.ContinuousSeries{
				Style:   style,
				XValues: sg.xs,
				YValues: sg.ys,
			}
			if j == 0 {
				cs.Name = l.Name
			}
			series = append(series, cs)
		}
	}

	xMax := float64(maxLen - 1)
	if xMax < 1 {
		xMax = 1
	}
	w, h := opts.Pixels()
	ch := chart.Chart{
		Title:  title,
		Width:  w,
		Height: h,
		DPI:    opts.DPI,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           XAxisLabel,
			Range:          &chart.ContinuousRange{Min: 0, Max: xMax},
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		YAxis: chart.YAxis{
			Name:           YAxisLabel,
			Range:          yr,
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

type segment struct {
	xs, ys []float64
}

// segments splits values into runs of finite values, keeping row indexes.
func segments(values []float64) []segment {
	var out []segment
	var cur segment
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if len(cur.xs) > 0 {
				out = append(out, cur)
				cur = segment{}
			}
			continue
		}
		cur.xs = append(cur.xs, float64(i))
		cur.ys = append(cur.ys, v)
	}
	if len(cur.xs) > 0 {
		out = append(out, cur)
	}
	return out
}

// yRange spans the finite values with a 5% margin. Flat data is padded so
// go-chart gets a non-zero delta; no finite values gives [0, 1].
func yRange(lo, hi float64) *chart.ContinuousRange {
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.05, 0.5)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// RowIndex returns 0..n-1 as floats.
func RowIndex(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// Image renders ch to PNG and decodes it.
func Image(ch chart.Chart) (image.Image, error) {
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}

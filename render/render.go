// Package render draws dashboard panels as SVG through go-chart.
//
// Bar, scatter, line and stacked panels have an image form. Box and violin
// panels do not; callers show their statistics table instead.
package render

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"
	"sort"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/spektr-org/pitchboard/engine"
	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/logger"
	"github.com/spektr-org/pitchboard/metrics"
)

// ErrUnsupportedPanel is returned for chart types without an image form.
var ErrUnsupportedPanel = stderrors.New("panel type has no image rendering")

const (
	defaultWidth  = 640
	defaultHeight = 400
)

type config struct {
	width  int
	height int
}

// Option configures a render.
type Option func(*config)

// WithSize sets the image size in pixels. Non-positive values are ignored.
func WithSize(width, height int) Option {
	return func(c *config) {
		if width > 0 {
			c.width = width
		}
		if height > 0 {
			c.height = height
		}
	}
}

// Supported reports whether a chart type can be rendered as an image.
func Supported(chartType string) bool {
	switch chartType {
	case engine.ChartBar, engine.ChartScatter, engine.ChartLine, engine.ChartStackedBar:
		return true
	}
	return false
}

// SVG writes cfg as an SVG document to w.
func SVG(w io.Writer, cfg *engine.ChartConfig, opts ...Option) error {
	if cfg == nil {
		return errors.New(errors.ErrorTypeRender, "nil chart")
	}
	c := &config{width: defaultWidth, height: defaultHeight}
	for _, opt := range opts {
		opt(c)
	}

	err := render(w, cfg, c)
	result := "ok"
	switch {
	case stderrors.Is(err, ErrUnsupportedPanel):
		result = "unsupported"
	case err != nil:
		result = "error"
		logger.Warn("chart render failed", zap.String("panel", cfg.ID), zap.Error(err))
	}
	metrics.ChartRenders.WithLabelValues(cfg.ID, result).Inc()
	return err
}

func render(w io.Writer, cfg *engine.ChartConfig, c *config) error {
	if !Supported(cfg.ChartType) {
		return errors.Wrap(ErrUnsupportedPanel, errors.ErrorTypeRender, "cannot render "+cfg.ChartType).
			WithDetail("panel", cfg.ID)
	}

	var buf bytes.Buffer
	var err error
	switch {
	case cfg.Empty():
		err = renderEmpty(&buf, cfg, c)
	case cfg.ChartType == engine.ChartBar:
		err = renderBar(&buf, cfg, c)
	case cfg.ChartType == engine.ChartStackedBar:
		err = renderStacked(&buf, cfg, c)
	default:
		err = renderContinuous(&buf, cfg, c)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeRender, "chart render failed").WithDetail("panel", cfg.ID)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// ============================================================================
// PANEL KINDS
// ============================================================================

func renderBar(w io.Writer, cfg *engine.ChartConfig, c *config) error {
	bars := make([]chart.Value, 0, len(cfg.Series))
	top := 0.0
	for _, s := range cfg.Series {
		for _, p := range s.Data {
			bars = append(bars, chart.Value{
				Label: s.Name,
				Value: p.Value,
				Style: chart.Style{FillColor: color(s.Color), StrokeColor: color(s.Color)},
			})
			top = math.Max(top, p.Value)
		}
	}

	bc := chart.BarChart{
		Title:      cfg.Title,
		Width:      c.width,
		Height:     c.height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:   barWidth(c.width, len(bars)),
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: niceMax(top)},
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// renderStacked draws one bar per label (age) with a segment per series
// (team). go-chart scales every bar to full height, so the count goes in
// the label.
func renderStacked(w io.Writer, cfg *engine.ChartConfig, c *config) error {
	type bar struct {
		x      float64
		label  string
		total  float64
		values []chart.Value
	}
	byLabel := make(map[string]*bar)
	var order []*bar
	for _, s := range cfg.Series {
		for _, p := range s.Data {
			b, ok := byLabel[p.Label]
			if !ok {
				b = &bar{x: p.X, label: p.Label}
				byLabel[p.Label] = b
				order = append(order, b)
			}
			if p.Value <= 0 {
				continue
			}
			b.total += p.Value
			b.values = append(b.values, chart.Value{
				Label: s.Name,
				Value: p.Value,
				Style: chart.Style{FillColor: color(s.Color), StrokeColor: color(s.Color)},
			})
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].x < order[j].x })

	bars := make([]chart.StackedBar, 0, len(order))
	for _, b := range order {
		if b.total == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{
			Name:   b.label + " (" + engine.FormatInt(int(b.total)) + ")",
			Values: b.values,
		})
	}
	sbc := chart.StackedBarChart{
		Title:      cfg.Title,
		Width:      c.width,
		Height:     c.height,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		BarSpacing: 8,
		Bars:       bars,
	}
	return sbc.Render(chart.SVG, w)
}

// renderContinuous draws scatter (dots only) and line panels.
func renderContinuous(w io.Writer, cfg *engine.ChartConfig, c *config) error {
	xs, ys := bounds{}, bounds{}
	series := make([]chart.Series, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		if len(s.Data) == 0 {
			continue
		}
		cs := chart.ContinuousSeries{
			Name:    s.Name,
			XValues: make([]float64, len(s.Data)),
			YValues: make([]float64, len(s.Data)),
		}
		for i, p := range s.Data {
			cs.XValues[i], cs.YValues[i] = p.X, p.Value
			xs.add(p.X)
			ys.add(p.Value)
		}
		if cfg.ChartType == engine.ChartScatter {
			cs.Style = pointStyle(color(s.Color), s.Data)
		} else {
			cs.Style = chart.Style{StrokeColor: color(s.Color), StrokeWidth: 2, DotColor: color(s.Color), DotWidth: 3}
		}
		series = append(series, cs)
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      c.width,
		Height:     c.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: cfg.XAxis, Range: xs.continuousRange()},
		YAxis:      chart.YAxis{Name: cfg.YAxis, Range: ys.continuousRange()},
		Series:     series,
	}
	if cfg.ShowGrid {
		ch.XAxis.GridMajorStyle = gridStyle()
		ch.YAxis.GridMajorStyle = gridStyle()
	}
	if cfg.ShowLegend {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.SVG, w)
}

// renderEmpty draws the titled frame of a panel with no rows.
func renderEmpty(w io.Writer, cfg *engine.ChartConfig, c *config) error {
	ch := chart.Chart{
		Title:      cfg.Title,
		Width:      c.width,
		Height:     c.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: cfg.XAxis, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:      chart.YAxis{Name: cfg.YAxis, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style:   chart.Style{Hidden: true},
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
			},
		},
	}
	return ch.Render(chart.SVG, w)
}

// ============================================================================
// HELPERS
// ============================================================================

// pointStyle renders points only, sized by each point's Size.
func pointStyle(col drawing.Color, data []engine.ChartPoint) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
		DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
			if index < 0 || index >= len(data) || data[index].Size <= 0 {
				return 3
			}
			return 2 + math.Min(data[index].Size, 16)/2
		},
	}
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: drawing.ColorFromHex("e5e7eb"), StrokeWidth: 1}
}

// color converts "#rrggbb" to a drawing colour; blank falls back to grey.
func color(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return chart.ColorAlternateGray
	}
	return drawing.ColorFromHex(hex)
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	bw := (width - 80) / (n * 2)
	switch {
	case bw < 8:
		return 8
	case bw > 60:
		return 60
	}
	return bw
}

// niceMax leaves headroom above the tallest bar and never returns zero.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return math.Ceil(v * 1.1)
}

type bounds struct {
	min, max float64
	set      bool
}

func (b *bounds) add(v float64) {
	if !b.set {
		b.min, b.max, b.set = v, v, true
		return
	}
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

// continuousRange pads the bounds by 5% so single points and flat series
// never produce a zero-width range.
func (b bounds) continuousRange() *chart.ContinuousRange {
	if !b.set {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (b.max - b.min) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(b.max)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: b.min - pad, Max: b.max + pad}
}

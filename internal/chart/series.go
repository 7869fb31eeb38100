package chart

import "github.com/SonBongKyun/Ryzm-sub000/internal/model"

// Pane identifies a horizontal band of the chart surface. The main pane is
// always present; secondary panes exist while at least one visible series
// lives on them.
type Pane int

const (
	PaneMain Pane = iota
	PaneRSI
	PaneDepth
)

// SeriesStyle selects how a line series renders.
type SeriesStyle int

const (
	StyleLine SeriesStyle = iota
	StyleHistogram
)

// LineSeries is one overlay series handle on a Surface. Hiding a series keeps
// its data — re-enabling is instant, nothing is recomputed.
type LineSeries struct {
	id      string
	pane    Pane
	style   SeriesStyle
	color   string
	scale   string // price-scale id; "" shares the pane's default scale
	visible bool
	data    []model.IndicatorPoint
}

// ID returns the series identifier.
func (s *LineSeries) ID() string { return s.id }

// Pane returns the pane this series renders on.
func (s *LineSeries) Pane() Pane { return s.pane }

// SetData replaces the series contents.
func (s *LineSeries) SetData(points []model.IndicatorPoint) {
	s.data = append(s.data[:0], points...)
}

// Upsert applies one live point: replace-if-same-time on the last point,
// otherwise append.
func (s *LineSeries) Upsert(p model.IndicatorPoint) {
	if n := len(s.data); n > 0 && s.data[n-1].Time == p.Time {
		s.data[n-1] = p
		return
	}
	s.data = append(s.data, p)
}

// Data returns the series points. Callers must not mutate the slice.
func (s *LineSeries) Data() []model.IndicatorPoint { return s.data }

// Last returns the most recent point.
func (s *LineSeries) Last() (model.IndicatorPoint, bool) {
	if len(s.data) == 0 {
		return model.IndicatorPoint{}, false
	}
	return s.data[len(s.data)-1], true
}

// SetVisible flips the visibility flag. Data is retained either way.
func (s *LineSeries) SetVisible(v bool) { s.visible = v }

// Visible reports the visibility flag.
func (s *LineSeries) Visible() bool { return s.visible }

// SetColor re-applies a palette color.
func (s *LineSeries) SetColor(c string) { s.color = c }

// Color returns the current color.
func (s *LineSeries) Color() string { return s.color }

// SetScale pins the series to a named price scale (comparison series use an
// independent one).
func (s *LineSeries) SetScale(scale string) { s.scale = scale }

// Scale returns the price-scale id.
func (s *LineSeries) Scale() string { return s.scale }

// PriceLine is a horizontal line handle pinned to a price.
type PriceLine struct {
	id    string
	title string
	color string
	price float64
}

// ID returns the price-line identifier.
func (p *PriceLine) ID() string { return p.id }

// Price returns the pinned price.
func (p *PriceLine) Price() float64 { return p.price }

// Title returns the label shown next to the line.
func (p *PriceLine) Title() string { return p.title }

// Color returns the line color.
func (p *PriceLine) Color() string { return p.color }

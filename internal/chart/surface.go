// Package chart holds the in-memory render model for one chart surface:
// candle and volume series, overlay line series, price lines, markers, panes,
// watermark and theme palette. It is the Go-side stand-in for the rendering
// library's chart object.
//
// A Surface is mutated only by its owning controller; overlays and the
// drawing manager add and remove annotations but never touch candle data.
// It is not goroutine-safe on its own — the owner serializes access.
package chart

import (
	"fmt"
	"sort"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Surface is one chart's full render state.
type Surface struct {
	symbol    string
	precision int
	palette   Palette
	watermark string

	candles []model.Candle
	volume  []model.VolumeBar

	series     []*LineSeries
	priceLines []*PriceLine
	markers    map[string][]model.SignalMarker // keyed by group (signals, journal, ...)

	nextID int
}

// NewSurface creates an empty surface for a symbol. Price precision is
// symbol-dependent, which is why a symbol switch recreates the surface.
func NewSurface(symbol string, precision int, palette Palette) *Surface {
	if precision <= 0 {
		precision = 2
	}
	return &Surface{
		symbol:    symbol,
		precision: precision,
		palette:   palette,
		watermark: symbol,
		markers:   make(map[string][]model.SignalMarker),
	}
}

// Symbol returns the surface's symbol.
func (s *Surface) Symbol() string { return s.symbol }

// Watermark returns the faint background label.
func (s *Surface) Watermark() string { return s.watermark }

// Palette returns the active palette.
func (s *Surface) Palette() Palette { return s.palette }

// ── Candle & volume series ──

// SetCandles replaces the candle series and regenerates the volume bars.
func (s *Surface) SetCandles(candles []model.Candle) {
	s.candles = append(s.candles[:0], candles...)
	s.volume = s.volume[:0]
	for _, c := range s.candles {
		s.volume = append(s.volume, s.volumeBar(c))
	}
}

// UpsertCandle applies one live update: a candle with the same time as the
// last stored one replaces it (in-progress bar revision), otherwise it
// appends. Returns true when a new bar was appended.
func (s *Surface) UpsertCandle(c model.Candle) bool {
	if n := len(s.candles); n > 0 && s.candles[n-1].Time == c.Time {
		s.candles[n-1] = c
		s.volume[n-1] = s.volumeBar(c)
		return false
	}
	s.candles = append(s.candles, c)
	s.volume = append(s.volume, s.volumeBar(c))
	return true
}

func (s *Surface) volumeBar(c model.Candle) model.VolumeBar {
	color := s.palette.Down
	if c.Bullish() {
		color = s.palette.Up
	}
	return model.VolumeBar{Time: c.Time, Value: c.Volume, Color: color}
}

// Candles returns the candle series. Callers must not mutate it.
func (s *Surface) Candles() []model.Candle { return s.candles }

// VolumeBars returns the volume series. Callers must not mutate it.
func (s *Surface) VolumeBars() []model.VolumeBar { return s.volume }

// LastCandle returns the most recent bar.
func (s *Surface) LastCandle() (model.Candle, bool) {
	if len(s.candles) == 0 {
		return model.Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// ── Overlay line series ──

// AddLineSeries creates a series handle on the given pane.
func (s *Surface) AddLineSeries(id string, pane Pane, style SeriesStyle, color string) *LineSeries {
	ls := &LineSeries{id: id, pane: pane, style: style, color: color, visible: true}
	s.series = append(s.series, ls)
	return ls
}

// RemoveLineSeries detaches a series handle. Returns false if the handle is
// not attached to this surface.
func (s *Surface) RemoveLineSeries(ls *LineSeries) bool {
	for i, have := range s.series {
		if have == ls {
			s.series = append(s.series[:i], s.series[i+1:]...)
			return true
		}
	}
	return false
}

// Series returns all attached line series.
func (s *Surface) Series() []*LineSeries { return s.series }

// PaneActive reports whether a pane currently renders: the main pane always
// does, a secondary pane only while it carries at least one visible series.
// Toggling the RSI indicator off therefore removes its pane without
// discarding the series data.
func (s *Surface) PaneActive(p Pane) bool {
	if p == PaneMain {
		return true
	}
	for _, ls := range s.series {
		if ls.pane == p && ls.visible {
			return true
		}
	}
	return false
}

// PaneCount returns the number of active panes.
func (s *Surface) PaneCount() int {
	n := 1
	for _, p := range []Pane{PaneRSI, PaneDepth} {
		if s.PaneActive(p) {
			n++
		}
	}
	return n
}

// ── Price lines ──

// AddPriceLine pins a horizontal line at a price and returns its handle.
func (s *Surface) AddPriceLine(title, color string, price float64) *PriceLine {
	s.nextID++
	pl := &PriceLine{id: fmt.Sprintf("pl-%d", s.nextID), title: title, color: color, price: price}
	s.priceLines = append(s.priceLines, pl)
	return pl
}

// RemovePriceLine detaches a price-line handle.
func (s *Surface) RemovePriceLine(pl *PriceLine) bool {
	for i, have := range s.priceLines {
		if have == pl {
			s.priceLines = append(s.priceLines[:i], s.priceLines[i+1:]...)
			return true
		}
	}
	return false
}

// PriceLines returns all attached price lines.
func (s *Surface) PriceLines() []*PriceLine { return s.priceLines }

// ── Markers ──

// SetMarkers replaces one group's markers (e.g. "signals", "journal").
func (s *Surface) SetMarkers(group string, ms []model.SignalMarker) {
	s.markers[group] = append([]model.SignalMarker(nil), ms...)
}

// ClearMarkers drops one group's markers.
func (s *Surface) ClearMarkers(group string) {
	delete(s.markers, group)
}

// Markers merges all groups and re-sorts by time — the active set is always
// time-ordered before rendering.
func (s *Surface) Markers() []model.SignalMarker {
	var all []model.SignalMarker
	for _, ms := range s.markers {
		all = append(all, ms...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Time < all[j].Time })
	return all
}

// ── Theme ──

// ApplyPalette swaps the color set and regenerates volume bar colors, since
// bar color encodes direction against a theme-specific palette. Series data
// is untouched; series colors are re-applied by the owner from its indicator
// records.
func (s *Surface) ApplyPalette(p Palette) {
	s.palette = p
	for i, c := range s.candles {
		s.volume[i] = s.volumeBar(c)
	}
}

// ── Legend & export ──

// Legend formats the O/H/L/C/Δ%/volume readout for the last bar, followed by
// the given active-indicator labels.
func (s *Surface) Legend(indicatorLabels []string) string {
	last, ok := s.LastCandle()
	if !ok {
		return s.symbol
	}
	changePct := 0.0
	if last.Open != 0 {
		changePct = (last.Close - last.Open) / last.Open * 100
	}
	out := fmt.Sprintf("%s · O %.*f H %.*f L %.*f C %.*f %+.2f%% · Vol %.2f",
		s.symbol,
		s.precision, last.Open,
		s.precision, last.High,
		s.precision, last.Low,
		s.precision, last.Close,
		changePct, last.Volume)
	for _, label := range indicatorLabels {
		out += " · " + label
	}
	return out
}

// SeriesSnapshot is the exported form of one line series.
type SeriesSnapshot struct {
	ID      string                 `json:"id"`
	Pane    Pane                   `json:"pane"`
	Color   string                 `json:"color"`
	Visible bool                   `json:"visible"`
	Data    []model.IndicatorPoint `json:"data"`
}

// PriceLineSnapshot is the exported form of one price line.
type PriceLineSnapshot struct {
	Title string  `json:"title"`
	Color string  `json:"color"`
	Price float64 `json:"price"`
}

// Snapshot is a full export of the rendered surface, the JSON counterpart of
// the original's snapshot-image export.
type Snapshot struct {
	Symbol     string               `json:"symbol"`
	Theme      string               `json:"theme"`
	Watermark  string               `json:"watermark"`
	Candles    []model.Candle       `json:"candles"`
	Volume     []model.VolumeBar    `json:"volume"`
	Series     []SeriesSnapshot     `json:"series"`
	PriceLines []PriceLineSnapshot  `json:"price_lines"`
	Markers    []model.SignalMarker `json:"markers"`
	Panes      int                  `json:"panes"`
	Legend     string               `json:"legend"`
}

// Export builds a snapshot of the current render state.
func (s *Surface) Export(indicatorLabels []string) Snapshot {
	snap := Snapshot{
		Symbol:    s.symbol,
		Theme:     s.palette.Name,
		Watermark: s.watermark,
		Candles:   s.candles,
		Volume:    s.volume,
		Markers:   s.Markers(),
		Panes:     s.PaneCount(),
		Legend:    s.Legend(indicatorLabels),
	}
	for _, ls := range s.series {
		snap.Series = append(snap.Series, SeriesSnapshot{
			ID: ls.id, Pane: ls.pane, Color: ls.color, Visible: ls.visible, Data: ls.data,
		})
	}
	for _, pl := range s.priceLines {
		snap.PriceLines = append(snap.PriceLines, PriceLineSnapshot{
			Title: pl.title, Color: pl.color, Price: pl.price,
		})
	}
	return snap
}

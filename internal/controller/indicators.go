package controller

import (
	"fmt"
	"time"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/indicator"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Standard parameter sets. Matching the dashboard defaults; not configurable
// per chart.
const (
	bollPeriod = 20
	bollMult   = 2.0
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

var emaPeriods = map[IndicatorKind]int{
	KindEMA7:  7,
	KindEMA25: 25,
	KindEMA99: 99,
}

// IndicatorKind identifies one toggleable indicator.
type IndicatorKind int

const (
	KindEMA7 IndicatorKind = iota
	KindEMA25
	KindEMA99
	KindBollinger
	KindRSI
	KindMACD
)

// String returns the wire name used by toggle requests and legend labels.
func (k IndicatorKind) String() string {
	switch k {
	case KindEMA7:
		return "ema7"
	case KindEMA25:
		return "ema25"
	case KindEMA99:
		return "ema99"
	case KindBollinger:
		return "boll"
	case KindRSI:
		return "rsi"
	case KindMACD:
		return "macd"
	}
	return "unknown"
}

// ParseKind resolves a wire name back to its kind.
func ParseKind(name string) (IndicatorKind, error) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown indicator %q", name)
}

// Kinds lists every indicator in display order.
func Kinds() []IndicatorKind {
	return []IndicatorKind{KindEMA7, KindEMA25, KindEMA99, KindBollinger, KindRSI, KindMACD}
}

// indicatorRecord binds one indicator to its series handles and batch compute
// function. Toggling flips visibility on the handles; data is never dropped.
type indicatorRecord struct {
	kind    IndicatorKind
	label   string
	visible bool
	series  []*chart.LineSeries
	compute func(candles []model.Candle, series []*chart.LineSeries)
}

func (r *indicatorRecord) setVisible(v bool) {
	r.visible = v
	for _, ls := range r.series {
		ls.SetVisible(v)
	}
}

// seriesColors maps a kind to its palette colors, one per series handle.
func seriesColors(p chart.Palette, kind IndicatorKind) []string {
	switch kind {
	case KindEMA7:
		return []string{p.EMA7}
	case KindEMA25:
		return []string{p.EMA25}
	case KindEMA99:
		return []string{p.EMA99}
	case KindBollinger:
		return []string{p.BollUpper, p.BollMiddle, p.BollLower}
	case KindRSI:
		return []string{p.RSI}
	case KindMACD:
		return []string{p.MACDLine, p.MACDSignal, p.MACDHist}
	}
	return nil
}

// buildRecordsLocked creates indicator records and their series handles on the
// current surface. Visibility flags survive a rebuild (symbol switch keeps
// the user's toggles); on first build EMAs start visible, the rest hidden.
func (c *Controller) buildRecordsLocked() {
	prev := c.recs
	c.recs = make(map[IndicatorKind]*indicatorRecord)
	c.live = make(map[IndicatorKind]*indicator.LiveEMA)

	for _, kind := range c.profileKinds() {
		rec := c.newRecordLocked(kind)
		if old, ok := prev[kind]; ok {
			rec.setVisible(old.visible)
		}
		c.recs[kind] = rec
		if period, ok := emaPeriods[kind]; ok {
			c.live[kind] = indicator.NewLiveEMA(period)
		}
	}
}

// profileKinds returns the kinds this controller computes. Lite controllers
// (grid cells) carry the short EMAs only.
func (c *Controller) profileKinds() []IndicatorKind {
	if c.profile == ProfileLite {
		return []IndicatorKind{KindEMA7, KindEMA25}
	}
	return Kinds()
}

func (c *Controller) newRecordLocked(kind IndicatorKind) *indicatorRecord {
	colors := seriesColors(c.palette, kind)
	switch kind {
	case KindEMA7, KindEMA25, KindEMA99:
		period := emaPeriods[kind]
		ls := c.surface.AddLineSeries(kind.String(), chart.PaneMain, chart.StyleLine, colors[0])
		return &indicatorRecord{
			kind:    kind,
			label:   fmt.Sprintf("EMA(%d)", period),
			visible: true,
			series:  []*chart.LineSeries{ls},
			compute: func(candles []model.Candle, series []*chart.LineSeries) {
				series[0].SetData(indicator.EMA(candles, period))
			},
		}

	case KindBollinger:
		upper := c.surface.AddLineSeries("boll-upper", chart.PaneMain, chart.StyleLine, colors[0])
		middle := c.surface.AddLineSeries("boll-middle", chart.PaneMain, chart.StyleLine, colors[1])
		lower := c.surface.AddLineSeries("boll-lower", chart.PaneMain, chart.StyleLine, colors[2])
		rec := &indicatorRecord{
			kind:   kind,
			label:  fmt.Sprintf("BOLL(%d,%g)", bollPeriod, bollMult),
			series: []*chart.LineSeries{upper, middle, lower},
			compute: func(candles []model.Candle, series []*chart.LineSeries) {
				b := indicator.Bollinger(candles, bollPeriod, bollMult)
				series[0].SetData(b.Upper)
				series[1].SetData(b.Middle)
				series[2].SetData(b.Lower)
			},
		}
		rec.setVisible(false)
		return rec

	case KindRSI:
		ls := c.surface.AddLineSeries("rsi", chart.PaneRSI, chart.StyleLine, colors[0])
		rec := &indicatorRecord{
			kind:   kind,
			label:  fmt.Sprintf("RSI(%d)", rsiPeriod),
			series: []*chart.LineSeries{ls},
			compute: func(candles []model.Candle, series []*chart.LineSeries) {
				series[0].SetData(indicator.RSI(candles, rsiPeriod))
			},
		}
		rec.setVisible(false)
		return rec

	case KindMACD:
		line := c.surface.AddLineSeries("macd-line", chart.PaneMain, chart.StyleLine, colors[0])
		sig := c.surface.AddLineSeries("macd-signal", chart.PaneMain, chart.StyleLine, colors[1])
		hist := c.surface.AddLineSeries("macd-hist", chart.PaneMain, chart.StyleHistogram, colors[2])
		rec := &indicatorRecord{
			kind:   kind,
			label:  fmt.Sprintf("MACD(%d,%d,%d)", macdFast, macdSlow, macdSignal),
			series: []*chart.LineSeries{line, sig, hist},
			compute: func(candles []model.Candle, series []*chart.LineSeries) {
				m := indicator.MACD(candles, macdFast, macdSlow, macdSignal)
				series[0].SetData(m.Line)
				series[1].SetData(m.Signal)
				series[2].SetData(m.Histogram)
			},
		}
		rec.setVisible(false)
		return rec
	}
	return nil
}

// batchComputeLocked reruns every indicator over the full candle window and
// re-seeds the live EMA state from the batch tails, so the incremental path
// continues exactly where the batch left off.
func (c *Controller) batchComputeLocked() {
	start := time.Now()
	candles := c.surface.Candles()
	for _, rec := range c.recs {
		rec.compute(candles, rec.series)
	}
	for kind, le := range c.live {
		le.Reset()
		rec := c.recs[kind]
		if rec == nil {
			continue
		}
		if last, ok := rec.series[0].Last(); ok {
			le.Seed(last.Value)
		}
	}
	if c.onBatch != nil {
		c.onBatch(time.Since(start))
	}
}

// Toggle flips one indicator's visibility and returns the new state. Data is
// retained; re-enabling shows the last computed values instantly.
func (c *Controller) Toggle(kind IndicatorKind) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.recs[kind]
	if !ok {
		return false, fmt.Errorf("indicator %s not available on this chart", kind)
	}
	rec.setVisible(!rec.visible)
	return rec.visible, nil
}

// Visible reports one indicator's visibility.
func (c *Controller) Visible(kind IndicatorKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.recs[kind]
	return ok && rec.visible
}

// visibleLabelsLocked lists legend labels for visible indicators in display
// order.
func (c *Controller) visibleLabelsLocked() []string {
	var labels []string
	for _, kind := range c.profileKinds() {
		if rec, ok := c.recs[kind]; ok && rec.visible {
			labels = append(labels, rec.label)
		}
	}
	return labels
}

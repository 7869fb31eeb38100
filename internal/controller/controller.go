// Package controller owns one chart's state: candle/volume/indicator series,
// visibility toggles, theme, and the live subscription lifecycle. It mediates
// between the feed adapter and the indicator engine.
//
// All chart state lives on a context object per controller instance — no
// module-level mutable cells — so multiple independent instances (grid
// layout) cannot cross-talk.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/indicator"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// LiveStream is one open live subscription. Updates() closes on teardown or
// transport failure.
type LiveStream interface {
	Updates() <-chan model.CandleUpdate
	Close()
}

// DataFeed loads history and opens live subscriptions.
type DataFeed interface {
	LoadHistory(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
	OpenLiveStream(ctx context.Context, symbol, interval string) (LiveStream, error)
}

// Notifier receives every applied live update together with the refreshed
// legend. Implementations fan out to UI clients (gateway) or the price bus.
type Notifier interface {
	LiveCandle(symbol, interval string, u model.CandleUpdate, legend string)
}

// Notifiers fans one update out to several notifiers (gateway plus price bus).
type Notifiers []Notifier

func (ns Notifiers) LiveCandle(symbol, interval string, u model.CandleUpdate, legend string) {
	for _, n := range ns {
		n.LiveCandle(symbol, interval, u, legend)
	}
}

// Profile selects how much indicator work a controller does. Grid cells use
// ProfileLite: EMA and volume coloring only, for at-a-glance monitoring.
type Profile int

const (
	ProfileFull Profile = iota
	ProfileLite
)

// Config configures a controller.
type Config struct {
	Feed         DataFeed
	Log          *slog.Logger
	Palette      chart.Palette
	Profile      Profile
	HistoryLimit int
	Precision    int
	Notifier     Notifier

	// Optional metrics hooks
	OnBatch        func(d time.Duration)
	OnStreamChange func(delta int)
}

// Controller owns one chart surface and its live subscription.
type Controller struct {
	mu sync.Mutex

	feed     DataFeed
	log      *slog.Logger
	palette  chart.Palette
	profile  Profile
	limit    int
	prec     int
	notifier Notifier

	onBatch        func(time.Duration)
	onStreamChange func(int)

	symbol   string
	interval string
	surface  *chart.Surface
	stream   LiveStream

	// gen invalidates in-flight updates from superseded subscriptions: it is
	// bumped on every teardown, and applyLive drops updates carrying an older
	// generation. This is the unregister-before-replace guarantee.
	gen uint64

	recs map[IndicatorKind]*indicatorRecord
	live map[IndicatorKind]*indicator.LiveEMA
}

// New creates a controller with an empty surface. Call SwitchSymbol to load.
func New(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 500
	}
	if cfg.Precision <= 0 {
		cfg.Precision = 2
	}
	c := &Controller{
		feed:           cfg.Feed,
		log:            cfg.Log,
		palette:        cfg.Palette,
		profile:        cfg.Profile,
		limit:          cfg.HistoryLimit,
		prec:           cfg.Precision,
		notifier:       cfg.Notifier,
		onBatch:        cfg.OnBatch,
		onStreamChange: cfg.OnStreamChange,
		recs:           make(map[IndicatorKind]*indicatorRecord),
		live:           make(map[IndicatorKind]*indicator.LiveEMA),
	}
	return c
}

// Symbol returns the current symbol.
func (c *Controller) Symbol() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbol
}

// Interval returns the current interval.
func (c *Controller) Interval() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// StreamOpen reports whether a live subscription is currently active.
func (c *Controller) StreamOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

// Do runs f with the surface under the controller's lock. Overlays, the
// drawing manager and the HTTP layer use this to annotate the surface without
// racing the live update path.
func (c *Controller) Do(f func(s *chart.Surface)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface != nil {
		f(c.surface)
	}
}

// SwitchSymbol tears down the current subscription, recreates the chart
// surface (price precision is symbol-dependent), loads history, runs the full
// indicator batch pass, seeds the live EMA state and opens a new
// subscription. History is fetched first: on failure the existing chart is
// left untouched.
func (c *Controller) SwitchSymbol(ctx context.Context, symbol, interval string) error {
	candles, err := c.feed.LoadHistory(ctx, symbol, interval, c.limit)
	if err != nil {
		c.log.Error("history load failed, keeping current chart",
			"symbol", symbol, "interval", interval, "err", err)
		return fmt.Errorf("switch symbol %s: %w", symbol, err)
	}

	c.mu.Lock()
	c.teardownStreamLocked()
	c.symbol, c.interval = symbol, interval
	c.surface = chart.NewSurface(symbol, c.prec, c.palette)
	c.buildRecordsLocked()
	c.surface.SetCandles(candles)
	c.batchComputeLocked()
	c.mu.Unlock()

	return c.openStream(ctx)
}

// SwitchInterval is SwitchSymbol minus the surface rebuild: the chart surface
// survives, its series are refilled for the new interval.
func (c *Controller) SwitchInterval(ctx context.Context, interval string) error {
	c.mu.Lock()
	symbol := c.symbol
	c.mu.Unlock()
	if symbol == "" {
		return fmt.Errorf("switch interval: no symbol loaded")
	}

	candles, err := c.feed.LoadHistory(ctx, symbol, interval, c.limit)
	if err != nil {
		c.log.Error("history load failed, keeping current chart",
			"symbol", symbol, "interval", interval, "err", err)
		return fmt.Errorf("switch interval %s: %w", interval, err)
	}

	c.mu.Lock()
	c.teardownStreamLocked()
	c.interval = interval
	c.surface.SetCandles(candles)
	c.batchComputeLocked()
	c.mu.Unlock()

	return c.openStream(ctx)
}

// Rebatch reloads the historical window and reruns the full indicator batch
// pass without touching the live subscription. This is the explicit refresh
// path for Bollinger/RSI/MACD, which are not live-updated incrementally.
func (c *Controller) Rebatch(ctx context.Context) error {
	c.mu.Lock()
	symbol, interval := c.symbol, c.interval
	c.mu.Unlock()
	if symbol == "" {
		return fmt.Errorf("rebatch: no symbol loaded")
	}

	candles, err := c.feed.LoadHistory(ctx, symbol, interval, c.limit)
	if err != nil {
		return fmt.Errorf("rebatch %s %s: %w", symbol, interval, err)
	}

	c.mu.Lock()
	c.surface.SetCandles(candles)
	c.batchComputeLocked()
	c.mu.Unlock()
	return nil
}

// Reconnect reopens the live subscription after a transport-side close. The
// controller never reconnects on its own — rebuilding state mid-render is the
// caller's call.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.symbol == "" {
		c.mu.Unlock()
		return fmt.Errorf("reconnect: no symbol loaded")
	}
	if c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.openStream(ctx)
}

// openStream dials a new subscription for the current (symbol, interval) and
// starts its consumer goroutine.
func (c *Controller) openStream(ctx context.Context) error {
	c.mu.Lock()
	symbol, interval := c.symbol, c.interval
	c.mu.Unlock()

	stream, err := c.feed.OpenLiveStream(ctx, symbol, interval)
	if err != nil {
		c.log.Error("live stream open failed", "symbol", symbol, "interval", interval, "err", err)
		return fmt.Errorf("open live stream %s %s: %w", symbol, interval, err)
	}

	c.mu.Lock()
	// A concurrent switch may have superseded us while dialing.
	if c.symbol != symbol || c.interval != interval {
		c.mu.Unlock()
		stream.Close()
		return nil
	}
	c.teardownStreamLocked()
	c.stream = stream
	gen := c.gen
	c.mu.Unlock()

	if c.onStreamChange != nil {
		c.onStreamChange(1)
	}

	go func() {
		for u := range stream.Updates() {
			c.applyLive(gen, u)
		}
		c.streamEnded(gen)
	}()
	return nil
}

// teardownStreamLocked closes the active subscription and bumps the
// generation so any in-flight update from it is dropped. Callers hold c.mu.
func (c *Controller) teardownStreamLocked() {
	c.gen++
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
		if c.onStreamChange != nil {
			c.onStreamChange(-1)
		}
	}
}

// applyLive applies one live candle update: candle/volume upsert plus the
// one-step EMA advance. Bollinger/RSI/MACD stay as-is until the next batch
// pass — an intentional accuracy/cost trade-off.
func (c *Controller) applyLive(gen uint64, u model.CandleUpdate) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return // superseded subscription, never mutate the replaced series
	}

	c.surface.UpsertCandle(u.Candle)

	for kind, le := range c.live {
		rec := c.recs[kind]
		if rec == nil || !le.Seeded() {
			continue
		}
		var v float64
		if u.Final {
			v = le.Commit(u.Candle.Close)
		} else {
			v = le.Preview(u.Candle.Close)
		}
		rec.series[0].Upsert(model.IndicatorPoint{Time: u.Candle.Time, Value: v})
	}

	var legend string
	if c.notifier != nil {
		legend = c.legendLocked()
	}
	c.mu.Unlock()

	if c.notifier != nil {
		c.notifier.LiveCandle(u.Symbol, u.Interval, u, legend)
	}
}

// streamEnded records a transport-side close of the current subscription.
func (c *Controller) streamEnded(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.stream == nil {
		return // we tore it down ourselves
	}
	c.stream = nil
	if c.onStreamChange != nil {
		c.onStreamChange(-1)
	}
	c.log.Warn("live stream ended, waiting for explicit reconnect",
		"symbol", c.symbol, "interval", c.interval)
}

// ApplyTheme re-applies a palette to every series without recomputation and
// regenerates volume colors.
func (c *Controller) ApplyTheme(p chart.Palette) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.palette = p
	if c.surface == nil {
		return
	}
	c.surface.ApplyPalette(p)
	for kind, rec := range c.recs {
		colors := seriesColors(p, kind)
		for i, ls := range rec.series {
			if i < len(colors) {
				ls.SetColor(colors[i])
			}
		}
	}
}

// Legend returns the current legend string.
func (c *Controller) Legend() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.legendLocked()
}

func (c *Controller) legendLocked() string {
	if c.surface == nil {
		return ""
	}
	return c.surface.Legend(c.visibleLabelsLocked())
}

// Export builds a full snapshot of the rendered surface.
func (c *Controller) Export() chart.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.surface == nil {
		return chart.Snapshot{}
	}
	return c.surface.Export(c.visibleLabelsLocked())
}

// Close tears down the live subscription. The controller can be reused via
// SwitchSymbol afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownStreamLocked()
}

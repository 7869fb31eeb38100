package overlay

import (
	"context"
	"fmt"
	"sync"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Comparison renders a second symbol on the main pane as a percent-change
// line on its own price scale, so BTC and a low-priced alt remain readable
// together. It owns a live subscription of its own, fully torn down when the
// overlay is cleared or re-pointed at another symbol.
type Comparison struct {
	ctrl  *controller.Controller
	feed  controller.DataFeed
	limit int

	mu     sync.Mutex
	symbol string
	base   float64 // first close of the window; anchor for percent change
	series *chart.LineSeries
	stream controller.LiveStream
	gen    uint64
}

func NewComparison(ctrl *controller.Controller, feed controller.DataFeed, limit int) *Comparison {
	if limit <= 0 {
		limit = 500
	}
	return &Comparison{ctrl: ctrl, feed: feed, limit: limit}
}

func (c *Comparison) Name() string { return "comparison" }

// SetSymbol points the overlay at a symbol. Takes effect on the next Refresh.
func (c *Comparison) SetSymbol(symbol string) {
	c.mu.Lock()
	c.symbol = symbol
	c.mu.Unlock()
}

// Symbol returns the comparison symbol.
func (c *Comparison) Symbol() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbol
}

func (c *Comparison) Refresh(ctx context.Context) error {
	c.mu.Lock()
	symbol := c.symbol
	c.mu.Unlock()
	if symbol == "" {
		return fmt.Errorf("comparison symbol not set")
	}

	// The previous subscription is fully torn down before anything new is
	// dialed; at most one comparison stream exists at any point. A failure
	// below leaves the overlay degraded and the manager disables it.
	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()

	interval := c.ctrl.Interval()
	candles, err := c.feed.LoadHistory(ctx, symbol, interval, c.limit)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("comparison %s: empty history", symbol)
	}

	stream, err := c.feed.OpenLiveStream(ctx, symbol, interval)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.base = candles[0].Close
	data := make([]model.IndicatorPoint, len(candles))
	for i, cd := range candles {
		data[i] = model.IndicatorPoint{Time: cd.Time, Value: percentChange(cd.Close, c.base)}
	}
	c.ctrl.Do(func(s *chart.Surface) {
		if c.series != nil {
			s.RemoveLineSeries(c.series)
		}
		c.series = s.AddLineSeries("comparison", chart.PaneMain, chart.StyleLine, s.Palette().Comparison)
		c.series.SetScale("comparison")
		c.series.SetData(data)
	})
	c.stream = stream
	gen := c.gen
	c.mu.Unlock()

	go func() {
		for u := range stream.Updates() {
			c.applyLive(gen, u)
		}
	}()
	return nil
}

func (c *Comparison) applyLive(gen uint64, u model.CandleUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.series == nil || c.base == 0 {
		return
	}
	point := model.IndicatorPoint{Time: u.Candle.Time, Value: percentChange(u.Candle.Close, c.base)}
	c.ctrl.Do(func(s *chart.Surface) {
		c.series.Upsert(point)
	})
}

func (c *Comparison) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.ctrl.Do(func(s *chart.Surface) {
		if c.series != nil {
			s.RemoveLineSeries(c.series)
			c.series = nil
		}
	})
}

// teardownLocked closes the live subscription and invalidates in-flight
// updates. Callers hold c.mu.
func (c *Comparison) teardownLocked() {
	c.gen++
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
}

func percentChange(v, base float64) float64 {
	return (v/base - 1) * 100
}

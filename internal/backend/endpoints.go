package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// FundingRate fetches the funding-rate history for a symbol.
func (c *Client) FundingRate(ctx context.Context, symbol string) ([]model.FundingPoint, error) {
	var resp struct {
		Data []model.FundingPoint `json:"data"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/funding-rate", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Liquidations fetches estimated liquidation zones for a symbol.
func (c *Client) Liquidations(ctx context.Context, symbol string) ([]model.LiquidationZone, error) {
	var resp struct {
		Zones []model.LiquidationZone `json:"zones"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/liquidations", q, &resp); err != nil {
		return nil, err
	}
	return resp.Zones, nil
}

// Depth fetches an order-book depth snapshot.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (*model.DepthSnapshot, error) {
	var snap model.DepthSnapshot
	q := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, "/api/depth", q, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Alerts fetches the user's price alerts across all symbols; the overlay
// filters by the chart's current symbol.
func (c *Client) Alerts(ctx context.Context) ([]model.AlertLine, error) {
	var resp struct {
		Alerts []model.AlertLine `json:"alerts"`
	}
	if err := c.getJSON(ctx, "/api/alerts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

// Signals fetches AI-signal history for a symbol.
func (c *Client) Signals(ctx context.Context, symbol string) ([]model.SignalMarker, error) {
	var resp struct {
		Signals []model.SignalMarker `json:"signals"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/ai/signals", q, &resp); err != nil {
		return nil, err
	}
	return resp.Signals, nil
}

// Journal fetches trade-journal entries for a symbol.
func (c *Client) Journal(ctx context.Context, symbol string) ([]model.JournalEntry, error) {
	var resp struct {
		Entries []model.JournalEntry `json:"entries"`
	}
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/api/journal/entries", q, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

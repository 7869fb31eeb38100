package model

// AlertDirection tells which side of the target price triggers an alert.
type AlertDirection string

const (
	AlertAbove AlertDirection = "above"
	AlertBelow AlertDirection = "below"
)

// AlertLine is a backend-sourced price alert. It renders as a price line only
// while its Symbol matches the chart's current symbol.
type AlertLine struct {
	ID          int64          `json:"id"`
	Symbol      string         `json:"symbol"`
	Direction   AlertDirection `json:"direction"`
	TargetPrice float64        `json:"target_price"`
}

// MarkerSide is the trade direction a signal marker annotates.
type MarkerSide string

const (
	SideLong  MarkerSide = "long"
	SideShort MarkerSide = "short"
)

// SignalMarker is a time-anchored marker attached to the candle series
// (AI signals, journal entries, backtest fills).
type SignalMarker struct {
	Time  int64      `json:"time"`
	Side  MarkerSide `json:"side"`
	Label string     `json:"label"`
	Color string     `json:"color"`
}

// FundingPoint is one funding-rate observation for the histogram overlay.
type FundingPoint struct {
	Time int64   `json:"time"`
	Rate float64 `json:"rate"`
}

// LiquidationZone is an estimated liquidation cluster rendered as a price line.
type LiquidationZone struct {
	Price     float64 `json:"price"`
	Side      string  `json:"side"` // "long" or "short" positions at risk
	Intensity float64 `json:"intensity"`
}

// DepthLevel is one order-book level.
type DepthLevel struct {
	Price float64 `json:"price"`
	Qty   float64 `json:"qty"`
}

// DepthSnapshot is an order-book snapshot for the depth mini-chart.
// Bids are sorted best (highest) first, asks best (lowest) first.
type DepthSnapshot struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

// JournalEntry is one trade-journal record shown as a chart marker.
type JournalEntry struct {
	Time   int64   `json:"time"`
	Symbol string  `json:"symbol"`
	Side   string  `json:"side"` // "buy" or "sell"
	Price  float64 `json:"price"`
	Note   string  `json:"note"`
}

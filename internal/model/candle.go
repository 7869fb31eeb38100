package model

import "encoding/json"

// Candle is one OHLCV bar for a (symbol, interval) series.
// Time is the bar open in Unix seconds and is the primary key within a
// series: an incoming candle with the same Time as the last stored one
// replaces it (in-progress bar revision), otherwise it appends.
type Candle struct {
	Time   int64   `json:"time"` // bar open, Unix seconds
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Bullish reports whether the bar closed at or above its open.
// Volume bar coloring derives from this.
func (c Candle) Bullish() bool {
	return c.Close >= c.Open
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// CandleUpdate is one live revision of the current (possibly still-forming)
// bar. Final is true when the upstream has closed the bar; the close price of
// a final update is used exactly once by the live EMA path.
type CandleUpdate struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Candle   Candle `json:"candle"`
	Final    bool   `json:"final"`
}

// VolumeBar is one volume histogram bar. Color encodes the direction of the
// corresponding candle against the active palette.
type VolumeBar struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// IndicatorPoint is a single time-aligned indicator output value.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

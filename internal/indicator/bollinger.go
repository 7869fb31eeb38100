package indicator

import (
	"math"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Bands holds the three Bollinger series, all aligned from candle index
// period-1.
type Bands struct {
	Upper  []model.IndicatorPoint
	Middle []model.IndicatorPoint
	Lower  []model.IndicatorPoint
}

// Bollinger computes rolling mean ± mult·stddev over a trailing window of
// period closes. The standard deviation is the population form (divide by N).
// Returns a zero Bands if the series is shorter than period.
func Bollinger(candles []model.Candle, period int, mult float64) Bands {
	if period <= 0 || len(candles) < period {
		return Bands{}
	}

	n := len(candles) - period + 1
	b := Bands{
		Upper:  make([]model.IndicatorPoint, 0, n),
		Middle: make([]model.IndicatorPoint, 0, n),
		Lower:  make([]model.IndicatorPoint, 0, n),
	}

	// Rolling sum and sum of squares keep the window pass O(n).
	var sum, sumSq float64
	for i, c := range candles {
		sum += c.Close
		sumSq += c.Close * c.Close
		if i >= period {
			old := candles[i-period].Close
			sum -= old
			sumSq -= old * old
		}
		if i < period-1 {
			continue
		}

		p := float64(period)
		mean := sum / p
		variance := sumSq/p - mean*mean
		if variance < 0 {
			variance = 0 // float cancellation on near-constant windows
		}
		dev := mult * math.Sqrt(variance)

		ts := c.Time
		b.Middle = append(b.Middle, model.IndicatorPoint{Time: ts, Value: mean})
		b.Upper = append(b.Upper, model.IndicatorPoint{Time: ts, Value: mean + dev})
		b.Lower = append(b.Lower, model.IndicatorPoint{Time: ts, Value: mean - dev})
	}
	return b
}

package indicator

import "github.com/SonBongKyun/Ryzm-sub000/internal/model"

// EMA computes an exponential moving average over the candle closes.
// The first output is the simple average of the first period closes (SMA
// seed), aligned to candles[period-1]; each following value applies
// ema = close*k + prev*(1-k) with k = 2/(period+1).
// Output length is len(candles)-period+1. Returns nil if the series is
// shorter than period.
func EMA(candles []model.Candle, period int) []model.IndicatorPoint {
	if period <= 0 || len(candles) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]model.IndicatorPoint, 0, len(candles)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += candles[i].Close
	}
	ema := sum / float64(period)
	out = append(out, model.IndicatorPoint{Time: candles[period-1].Time, Value: ema})

	for i := period; i < len(candles); i++ {
		ema = candles[i].Close*k + ema*(1-k)
		out = append(out, model.IndicatorPoint{Time: candles[i].Time, Value: ema})
	}
	return out
}

// emaOfPoints runs the same SMA-seeded EMA recurrence over an already
// computed point series. Used for the MACD signal line.
func emaOfPoints(points []model.IndicatorPoint, period int) []model.IndicatorPoint {
	if period <= 0 || len(points) < period {
		return nil
	}

	k := 2.0 / float64(period+1)
	out := make([]model.IndicatorPoint, 0, len(points)-period+1)

	var sum float64
	for i := 0; i < period; i++ {
		sum += points[i].Value
	}
	ema := sum / float64(period)
	out = append(out, model.IndicatorPoint{Time: points[period-1].Time, Value: ema})

	for i := period; i < len(points); i++ {
		ema = points[i].Value*k + ema*(1-k)
		out = append(out, model.IndicatorPoint{Time: points[i].Time, Value: ema})
	}
	return out
}

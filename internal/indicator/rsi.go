package indicator

import "github.com/SonBongKyun/Ryzm-sub000/internal/model"

// RSI computes the Relative Strength Index using Wilder's smoothing method.
// The first value uses a simple average of the first period deltas and is
// aligned to candle index period; subsequent averages use
// avg = (avg*(period-1) + current) / period for gains and losses separately.
// RSI is 100 when the average loss is exactly zero — never divide by zero.
// Returns nil unless the series has at least period+1 candles.
func RSI(candles []model.Candle, period int) []model.IndicatorPoint {
	if period <= 0 || len(candles) <= period {
		return nil
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		delta := candles[i].Close - candles[i-1].Close
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	p := float64(period)
	avgGain := gains / p
	avgLoss := losses / p

	out := make([]model.IndicatorPoint, 0, len(candles)-period)
	out = append(out, model.IndicatorPoint{Time: candles[period].Time, Value: rsiValue(avgGain, avgLoss)})

	for i := period + 1; i < len(candles); i++ {
		delta := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out = append(out, model.IndicatorPoint{Time: candles[i].Time, Value: rsiValue(avgGain, avgLoss)})
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

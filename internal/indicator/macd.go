package indicator

import "github.com/SonBongKyun/Ryzm-sub000/internal/model"

// MACDResult holds the three MACD series. Line starts at candle index slow-1;
// Signal and Histogram start signalPeriod-1 points later. At every aligned
// index, Histogram equals Line minus Signal exactly.
type MACDResult struct {
	Line      []model.IndicatorPoint
	Signal    []model.IndicatorPoint
	Histogram []model.IndicatorPoint
}

// MACD computes EMA(fast) - EMA(slow) on the overlapping suffix, a signal
// line as EMA(signalPeriod) of the MACD line, and their difference as the
// histogram. Requires fast < slow; returns a zero result when the series is
// too short for the slow EMA.
func MACD(candles []model.Candle, fast, slow, signalPeriod int) MACDResult {
	if fast <= 0 || slow <= fast || signalPeriod <= 0 {
		return MACDResult{}
	}

	fastEMA := EMA(candles, fast)
	slowEMA := EMA(candles, slow)
	if slowEMA == nil {
		return MACDResult{}
	}

	// The fast EMA has slow-fast extra leading points; drop them so both
	// series share the slow EMA's time axis.
	offset := len(fastEMA) - len(slowEMA)
	line := make([]model.IndicatorPoint, len(slowEMA))
	for i := range slowEMA {
		line[i] = model.IndicatorPoint{
			Time:  slowEMA[i].Time,
			Value: fastEMA[i+offset].Value - slowEMA[i].Value,
		}
	}

	signal := emaOfPoints(line, signalPeriod)
	if signal == nil {
		return MACDResult{Line: line}
	}

	lineOffset := len(line) - len(signal)
	hist := make([]model.IndicatorPoint, len(signal))
	for i := range signal {
		hist[i] = model.IndicatorPoint{
			Time:  signal[i].Time,
			Value: line[i+lineOffset].Value - signal[i].Value,
		}
	}

	return MACDResult{Line: line, Signal: signal, Histogram: hist}
}

// Package indicator provides technical indicator calculations over candle data.
//
// The batch functions (EMA, Bollinger, RSI, MACD) are pure: they take an
// ordered candle slice and return time-aligned point series, with no I/O and
// no shared state. Short inputs yield nil. Each output series is aligned to a
// suffix of the input — the warm-up window consumes the head.
//
// LiveEMA is the one stateful type: it advances a batch-seeded EMA one bar at
// a time on the live update path without a full recompute.
package indicator

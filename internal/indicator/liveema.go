package indicator

// LiveEMA advances an EMA one bar at a time on the live update path, avoiding
// a full batch recompute per tick.
//
// Preview never mutates the committed value, so the same forming bar can be
// revised any number of times without accumulating error; Commit folds a
// closed bar's final close in exactly once. Seed it from the last value of a
// batch EMA pass.
type LiveEMA struct {
	k         float64
	committed float64
	seeded    bool
}

// NewLiveEMA creates a live EMA state with k = 2/(period+1).
func NewLiveEMA(period int) *LiveEMA {
	return &LiveEMA{k: 2.0 / float64(period+1)}
}

// Seed sets the committed value from a batch pass.
func (e *LiveEMA) Seed(v float64) {
	e.committed = v
	e.seeded = true
}

// Seeded reports whether the state has a committed anchor.
func (e *LiveEMA) Seeded() bool { return e.seeded }

// Preview returns the EMA value a bar with this close would produce, without
// mutating state: close*k + committed*(1-k).
func (e *LiveEMA) Preview(close float64) float64 {
	if !e.seeded {
		return close
	}
	return close*e.k + e.committed*(1-e.k)
}

// Commit folds a closed bar's final close into the committed value and
// returns it.
func (e *LiveEMA) Commit(close float64) float64 {
	if !e.seeded {
		e.committed = close
		e.seeded = true
		return e.committed
	}
	e.committed = close*e.k + e.committed*(1-e.k)
	return e.committed
}

// Value returns the committed EMA value.
func (e *LiveEMA) Value() float64 { return e.committed }

// Reset drops the committed anchor, usually ahead of a fresh batch Seed.
func (e *LiveEMA) Reset() {
	e.committed = 0
	e.seeded = false
}

package indicator

import (
	"math"
	"testing"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

// series builds a candle slice from closes, one bar per minute from t=0.
func series(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = model.Candle{
			Time:  int64(i * 60),
			Open:  c,
			High:  c + 0.5,
			Low:   c - 0.5,
			Close: c,
		}
	}
	return out
}

func constSeries(n int, v float64) []model.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = v
	}
	return series(closes...)
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): k = 2/(3+1) = 0.5
	// Closes: 100, 102, 104, 103, 105
	// Seed after candle 3: (100+102+104)/3 = 102.0
	// Candle 4: 103*0.5 + 102.0*0.5 = 102.5
	// Candle 5: 105*0.5 + 102.5*0.5 = 103.75
	out := EMA(series(100, 102, 104, 103, 105), 3)
	if len(out) != 3 {
		t.Fatalf("EMA(3) output length: got %d, want 3", len(out))
	}
	expected := []float64{102.0, 102.5, 103.75}
	for i, want := range expected {
		assertClose(t, "EMA(3)", out[i].Value, want, 0.0001)
	}
	// First point aligned to candle index period-1
	if out[0].Time != 120 {
		t.Errorf("EMA(3) first point time: got %d, want 120", out[0].Time)
	}
}

func TestEMA_ConstantSeries_IsConstant(t *testing.T) {
	for _, period := range []int{3, 7, 25} {
		out := EMA(constSeries(40, 250.5), period)
		if len(out) != 40-period+1 {
			t.Fatalf("EMA(%d) length: got %d, want %d", period, len(out), 40-period+1)
		}
		for _, p := range out {
			assertClose(t, "EMA constant", p.Value, 250.5, 1e-9)
		}
	}
}

func TestEMA_TooShort_ReturnsNil(t *testing.T) {
	if out := EMA(series(1, 2, 3), 4); out != nil {
		t.Errorf("EMA on short series should be nil, got %d points", len(out))
	}
	if out := EMA(nil, 7); out != nil {
		t.Errorf("EMA on empty series should be nil")
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_ConstantSeries_BandsCollapse(t *testing.T) {
	b := Bollinger(constSeries(30, 99.75), 20, 2)
	if len(b.Middle) != 11 {
		t.Fatalf("Bollinger length: got %d, want 11", len(b.Middle))
	}
	for i := range b.Middle {
		assertClose(t, "Bollinger middle", b.Middle[i].Value, 99.75, 1e-9)
		assertClose(t, "Bollinger upper", b.Upper[i].Value, 99.75, 1e-6)
		assertClose(t, "Bollinger lower", b.Lower[i].Value, 99.75, 1e-6)
	}
}

func TestBollinger_Correctness_Period3(t *testing.T) {
	// Closes: 1, 2, 3, 4
	// Window [1,2,3]: mean=2, population var=((1)²+0+(1)²)/3=2/3, std=0.816497
	// Window [2,3,4]: mean=3, same spread
	b := Bollinger(series(1, 2, 3, 4), 3, 2)
	if len(b.Middle) != 2 {
		t.Fatalf("Bollinger length: got %d, want 2", len(b.Middle))
	}
	std := math.Sqrt(2.0 / 3.0)
	assertClose(t, "middle[0]", b.Middle[0].Value, 2.0, 0.0001)
	assertClose(t, "upper[0]", b.Upper[0].Value, 2.0+2*std, 0.0001)
	assertClose(t, "lower[0]", b.Lower[0].Value, 2.0-2*std, 0.0001)
	assertClose(t, "middle[1]", b.Middle[1].Value, 3.0, 0.0001)
	assertClose(t, "upper[1]", b.Upper[1].Value, 3.0+2*std, 0.0001)
	// Aligned from index period-1
	if b.Middle[0].Time != 120 {
		t.Errorf("Bollinger first point time: got %d, want 120", b.Middle[0].Time)
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Closes: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	// First RSI (5 deltas, SMA seed): avgGain=0.312 avgLoss=0.146 → 68.112
	// Then Wilder smoothing: 72.219, 76.658, 81.509
	out := RSI(series(44.00, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84), 5)
	if len(out) != 4 {
		t.Fatalf("RSI length: got %d, want 4", len(out))
	}
	expected := []float64{68.112, 72.219, 76.658, 81.509}
	for i, want := range expected {
		assertClose(t, "RSI(5)", out[i].Value, want, 0.2)
	}
	// First value aligned to candle index period
	if out[0].Time != 300 {
		t.Errorf("RSI first point time: got %d, want 300", out[0].Time)
	}
}

func TestRSI_MonotonicUp_Is100(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(series(closes...), 14)
	if len(out) == 0 {
		t.Fatal("RSI returned no points")
	}
	for _, p := range out {
		assertClose(t, "RSI uptrend", p.Value, 100.0, 0.0001)
	}
}

func TestRSI_FlatSeries_Is100(t *testing.T) {
	// All deltas zero → avgLoss == 0 branch
	out := RSI(constSeries(20, 50), 14)
	for _, p := range out {
		assertClose(t, "RSI flat", p.Value, 100.0, 0.0001)
	}
}

func TestRSI_TooShort_ReturnsNil(t *testing.T) {
	if out := RSI(constSeries(14, 1), 14); out != nil {
		t.Errorf("RSI needs period+1 candles, got %d points", len(out))
	}
}

// ────────────────────────────────────────────────────────────
// MACD Correctness
// ────────────────────────────────────────────────────────────

func TestMACD_HistogramIdentity(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5)
	}
	m := MACD(series(closes...), 12, 26, 9)

	if len(m.Line) != 80-26+1 {
		t.Fatalf("MACD line length: got %d, want %d", len(m.Line), 80-26+1)
	}
	if len(m.Signal) != len(m.Line)-9+1 {
		t.Fatalf("MACD signal length: got %d, want %d", len(m.Signal), len(m.Line)-9+1)
	}
	if len(m.Histogram) != len(m.Signal) {
		t.Fatalf("MACD histogram length: got %d, want %d", len(m.Histogram), len(m.Signal))
	}

	lineOffset := len(m.Line) - len(m.Signal)
	for i := range m.Signal {
		if m.Histogram[i].Time != m.Signal[i].Time {
			t.Fatalf("histogram[%d] time misaligned", i)
		}
		want := m.Line[i+lineOffset].Value - m.Signal[i].Value
		if m.Histogram[i].Value != want {
			t.Errorf("histogram[%d]: got %v, want exactly line-signal = %v", i, m.Histogram[i].Value, want)
		}
	}
}

func TestMACD_ConstantSeries_IsZero(t *testing.T) {
	m := MACD(constSeries(60, 500), 12, 26, 9)
	for _, p := range m.Line {
		assertClose(t, "MACD line constant", p.Value, 0, 1e-9)
	}
	for _, p := range m.Histogram {
		assertClose(t, "MACD histogram constant", p.Value, 0, 1e-9)
	}
}

func TestMACD_TooShort_ReturnsEmpty(t *testing.T) {
	m := MACD(constSeries(20, 1), 12, 26, 9)
	if m.Line != nil || m.Signal != nil || m.Histogram != nil {
		t.Errorf("MACD on short series should be empty")
	}
}

// ────────────────────────────────────────────────────────────
// LiveEMA
// ────────────────────────────────────────────────────────────

func TestLiveEMA_PreviewDoesNotMutate(t *testing.T) {
	e := NewLiveEMA(7) // k = 2/8 = 0.25
	e.Seed(100)

	// Repeated revisions of the same forming bar
	for i := 0; i < 50; i++ {
		e.Preview(100 + float64(i))
	}
	assertClose(t, "committed after previews", e.Value(), 100, 1e-12)

	got := e.Preview(101)
	assertClose(t, "preview", got, 101*0.25+100*0.75, 1e-12)
}

func TestLiveEMA_CommitUsesFinalCloseOnce(t *testing.T) {
	e := NewLiveEMA(7)
	e.Seed(100)

	v := e.Commit(104)
	assertClose(t, "commit", v, 104*0.25+100*0.75, 1e-12)

	// Next preview anchors on the committed value
	got := e.Preview(102)
	assertClose(t, "preview after commit", got, 102*0.25+v*0.75, 1e-12)
}

func TestLiveEMA_MatchesBatchSeededStep(t *testing.T) {
	// Historical window of 500 bars, batch pass seeds the live state, then a
	// live revision arrives with a close 1% above the prior close. EMA-7's
	// new value must equal close*0.25 + prev*0.75.
	closes := make([]float64, 500)
	for i := range closes {
		closes[i] = 30000 + 100*math.Sin(float64(i)/9) + float64(i%7)
	}
	candles := series(closes...)

	batch := EMA(candles, 7)
	seed := batch[len(batch)-1].Value

	live := NewLiveEMA(7)
	live.Seed(seed)

	tick := closes[len(closes)-1] * 1.01
	assertClose(t, "live EMA-7 step", live.Preview(tick), tick*0.25+seed*0.75, 1e-9)
}

func TestLiveEMA_UnseededPreviewReturnsClose(t *testing.T) {
	e := NewLiveEMA(25)
	assertClose(t, "unseeded preview", e.Preview(42), 42, 1e-12)
}

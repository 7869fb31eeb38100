package drawing

import (
	"math"
	"testing"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
)

func newTestManager() (*Manager, *chart.Surface) {
	s := chart.NewSurface("BTCUSDT", 2, chart.Dark())
	return NewManager(s, nil), s
}

// ────────────────────────────────────────────────────────────
// Pure FSM transitions
// ────────────────────────────────────────────────────────────

func TestTransition_NoTool_Ignored(t *testing.T) {
	st, d := Transition(Idle(), Point{Time: 1, Price: 100})
	if d != nil || st.Tool != ToolNone || len(st.Pending) != 0 {
		t.Errorf("idle state must ignore clicks: %+v %+v", st, d)
	}
}

func TestTransition_Horizontal_CommitsOnFirstClick(t *testing.T) {
	st, d := Transition(Arm(ToolHorizontal), Point{Time: 10, Price: 105.5})
	if d == nil || d.Kind != KindHorizontal {
		t.Fatalf("horizontal must commit on first click: %+v", d)
	}
	if len(d.Anchors) != 1 || d.Anchors[0].Price != 105.5 {
		t.Errorf("anchors wrong: %+v", d.Anchors)
	}
	if st.Tool != ToolNone {
		t.Error("committing must disarm the tool")
	}
}

func TestTransition_Trend_TwoClicks(t *testing.T) {
	st, d := Transition(Arm(ToolTrend), Point{Time: 60, Price: 100})
	if d != nil {
		t.Fatal("trend must not commit on first click")
	}
	if st.Tool != ToolTrend || len(st.Pending) != 1 {
		t.Fatalf("pending state wrong: %+v", st)
	}

	st, d = Transition(st, Point{Time: 120, Price: 110})
	if d == nil || d.Kind != KindTrend {
		t.Fatalf("trend must commit on second click: %+v", d)
	}
	if len(d.Anchors) != 2 {
		t.Fatalf("trend anchors: got %d, want 2", len(d.Anchors))
	}
	if d.Anchors[0] != (Point{Time: 60, Price: 100}) || d.Anchors[1] != (Point{Time: 120, Price: 110}) {
		t.Errorf("trend endpoints wrong: %+v", d.Anchors)
	}
	if st.Tool != ToolNone {
		t.Error("committing must disarm the tool")
	}
}

// ────────────────────────────────────────────────────────────
// Fibonacci levels
// ────────────────────────────────────────────────────────────

func TestFibLevels_High100Low50(t *testing.T) {
	want := []float64{100, 88.2, 80.9, 75, 69.1, 60.9, 50}
	got := FibLevels(100, 50)
	if len(got) != 7 {
		t.Fatalf("fib level count: got %d, want 7", len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("level %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFibLevels_OrderIndependent(t *testing.T) {
	a := FibLevels(100, 50)
	b := FibLevels(50, 100)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("fib levels must not depend on click order: %v vs %v", a, b)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Manager rendering
// ────────────────────────────────────────────────────────────

func TestManager_HorizontalRendersPriceLine(t *testing.T) {
	m, s := newTestManager()
	m.ArmTool(ToolHorizontal)
	if m.Cursor() != "crosshair" {
		t.Error("armed tool must switch cursor to crosshair")
	}

	d := m.Click(Point{Time: 60, Price: 30500})
	if d == nil {
		t.Fatal("horizontal click must commit")
	}
	if len(s.PriceLines()) != 1 || s.PriceLines()[0].Price() != 30500 {
		t.Errorf("price line not rendered: %+v", s.PriceLines())
	}
	if m.ArmedTool() != ToolNone || m.Cursor() != "default" {
		t.Error("manager must disarm after commit")
	}
}

func TestManager_TrendRendersExactlyTwoPoints(t *testing.T) {
	m, s := newTestManager()
	m.ArmTool(ToolTrend)
	m.Click(Point{Time: 0, Price: 100})
	m.Click(Point{Time: 600, Price: 140})

	series := s.Series()
	if len(series) != 1 {
		t.Fatalf("trend series count: got %d, want 1", len(series))
	}
	data := series[0].Data()
	if len(data) != 2 {
		t.Fatalf("trend line must render exactly two endpoints, got %d", len(data))
	}
	if data[0].Time != 0 || data[0].Value != 100 || data[1].Time != 600 || data[1].Value != 140 {
		t.Errorf("trend endpoints wrong: %+v", data)
	}
}

func TestManager_FibonacciRendersSevenDistinctLines(t *testing.T) {
	m, s := newTestManager()
	m.ArmTool(ToolFibonacci)
	m.Click(Point{Time: 0, Price: 50})
	m.Click(Point{Time: 600, Price: 100})

	lines := s.PriceLines()
	if len(lines) != 7 {
		t.Fatalf("fib price line count: got %d, want 7", len(lines))
	}
	if lines[0].Price() != 100 || lines[6].Price() != 50 {
		t.Errorf("fib extremes wrong: first=%v last=%v", lines[0].Price(), lines[6].Price())
	}
	// Each level colored distinctly (endpoints share the neutral color)
	if lines[1].Color() == lines[2].Color() {
		t.Error("fib levels must be colored distinctly")
	}
}

func TestManager_ArmingClearsPendingPoints(t *testing.T) {
	m, _ := newTestManager()
	m.ArmTool(ToolTrend)
	m.Click(Point{Time: 0, Price: 100})

	// Re-arming discards the half-built trend line
	m.ArmTool(ToolFibonacci)
	m.Click(Point{Time: 60, Price: 90})
	d := m.Click(Point{Time: 120, Price: 80})
	if d == nil || d.Kind != KindFibonacci {
		t.Fatalf("re-armed tool must start fresh: %+v", d)
	}
}

func TestManager_ClearAllRemovesEveryHandle(t *testing.T) {
	m, s := newTestManager()

	m.ArmTool(ToolHorizontal)
	m.Click(Point{Time: 0, Price: 100})
	m.ArmTool(ToolTrend)
	m.Click(Point{Time: 0, Price: 100})
	m.Click(Point{Time: 60, Price: 105})
	m.ArmTool(ToolFibonacci)
	m.Click(Point{Time: 0, Price: 90})
	m.Click(Point{Time: 60, Price: 110})

	if m.Count() != 3 {
		t.Fatalf("committed drawing count: got %d, want 3", m.Count())
	}

	m.ClearAll()
	if m.Count() != 0 || m.RenderedHandleCount() != 0 {
		t.Error("ClearAll must reset bookkeeping to empty")
	}
	if len(s.PriceLines()) != 0 {
		t.Errorf("leaked price lines after ClearAll: %d", len(s.PriceLines()))
	}
	if len(s.Series()) != 0 {
		t.Errorf("leaked series after ClearAll: %d", len(s.Series()))
	}
	if m.ArmedTool() != ToolNone {
		t.Error("ClearAll must disarm the tool")
	}
}

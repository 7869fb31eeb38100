package layout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

type stubStream struct {
	symbol  string
	updates chan model.CandleUpdate
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *stubStream) Updates() <-chan model.CandleUpdate { return s.updates }

func (s *stubStream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.updates)
	})
}

func (s *stubStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type stubFeed struct {
	mu      sync.Mutex
	failFor map[string]bool
	streams []*stubStream
}

func (f *stubFeed) LoadHistory(_ context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[symbol] {
		return nil, errors.New("symbol unavailable")
	}
	out := make([]model.Candle, 30)
	for i := range out {
		out[i] = model.Candle{Time: 1700000000 + int64(i)*60, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}
	}
	return out, nil
}

func (f *stubFeed) OpenLiveStream(_ context.Context, symbol, interval string) (controller.LiveStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := &stubStream{symbol: symbol, updates: make(chan model.CandleUpdate, 8)}
	f.streams = append(f.streams, st)
	return st, nil
}

func (f *stubFeed) openSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, st := range f.streams {
		if !st.isClosed() {
			out = append(out, st.symbol)
		}
	}
	return out
}

func newTestManager(t *testing.T) (*Manager, *stubFeed) {
	t.Helper()
	feed := &stubFeed{failFor: map[string]bool{}}
	primary := controller.New(controller.Config{Feed: feed, Palette: chart.Dark()})
	factory := func() *controller.Controller {
		return controller.New(controller.Config{Feed: feed, Palette: chart.Dark(), Profile: controller.ProfileLite})
	}
	m := NewManager(primary, factory, nil)
	t.Cleanup(m.Close)
	return m, feed
}

func TestSetGrid_TearsDownSingleFirst(t *testing.T) {
	m, feed := newTestManager(t)
	ctx := context.Background()

	if err := m.SetSingle(ctx, "BTCUSDT", "1m"); err != nil {
		t.Fatalf("SetSingle: %v", err)
	}
	if err := m.SetGrid(ctx, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, "5m"); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}

	if m.Mode() != ModeGrid {
		t.Errorf("mode: got %s, want grid", m.Mode())
	}
	if got := len(m.Cells()); got != 3 {
		t.Fatalf("cells: got %d, want 3", got)
	}
	open := feed.openSymbols()
	if len(open) != 3 {
		t.Fatalf("open subscriptions: got %v, want the 3 grid symbols only", open)
	}
}

func TestSetSingle_TearsDownGridFirst(t *testing.T) {
	m, feed := newTestManager(t)
	ctx := context.Background()

	if err := m.SetGrid(ctx, []string{"BTCUSDT", "ETHUSDT"}, "5m"); err != nil {
		t.Fatalf("SetGrid: %v", err)
	}
	if err := m.SetSingle(ctx, "BTCUSDT", "1m"); err != nil {
		t.Fatalf("SetSingle: %v", err)
	}

	if m.Mode() != ModeSingle {
		t.Errorf("mode: got %s, want single", m.Mode())
	}
	if cells := m.Cells(); cells != nil {
		t.Errorf("cells should be gone in single mode: %v", cells)
	}
	open := feed.openSymbols()
	if len(open) != 1 || open[0] != "BTCUSDT" {
		t.Errorf("open subscriptions: got %v, want [BTCUSDT]", open)
	}
	// Round trip preserved the primary's chart state.
	if got := len(m.Primary().Export().Candles); got != 30 {
		t.Errorf("primary candles: got %d, want 30", got)
	}
}

func TestSetGrid_DropsFailingCellKeepsRest(t *testing.T) {
	m, feed := newTestManager(t)
	feed.mu.Lock()
	feed.failFor["ETHUSDT"] = true
	feed.mu.Unlock()

	err := m.SetGrid(context.Background(), []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, "5m")
	if err == nil {
		t.Fatal("expected joined error for the failing cell")
	}
	cells := m.Cells()
	if len(cells) != 2 {
		t.Fatalf("cells: got %d, want 2", len(cells))
	}
	for _, c := range cells {
		if c.Symbol == "ETHUSDT" {
			t.Error("failing cell should have been dropped")
		}
	}
	if open := feed.openSymbols(); len(open) != 2 {
		t.Errorf("open subscriptions: got %v, want 2", open)
	}
}

func TestSetGrid_RequiresSymbols(t *testing.T) {
	m, _ := newTestManager(t)
	if err := m.SetGrid(context.Background(), nil, "5m"); err == nil {
		t.Fatal("expected error for empty grid")
	}
}

package drawing

import (
	"fmt"
	"log/slog"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// fibColors color the seven retracement levels distinctly, in ratio order.
var fibColors = []string{
	"#787b86", "#f23645", "#ff9800", "#4caf50", "#089981", "#00bcd4", "#787b86",
}

// rendered tracks the surface handles belonging to one committed drawing, so
// ClearAll can remove every one of them — a leaked handle after clearing is a
// defect.
type rendered struct {
	drawing    Drawing
	priceLines []*chart.PriceLine
	series     []*chart.LineSeries
}

// Manager owns the tool FSM and the rendered drawing handles for one surface.
type Manager struct {
	log     *slog.Logger
	surface *chart.Surface
	state   State
	items   []rendered
	seq     int
}

// NewManager creates a drawing manager attached to a surface.
func NewManager(surface *chart.Surface, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log, surface: surface, state: Idle()}
}

// Attach re-targets the manager at a new surface (after a symbol switch
// recreates it). Existing drawings belong to the old surface and are
// forgotten; the tool state resets.
func (m *Manager) Attach(surface *chart.Surface) {
	m.surface = surface
	m.items = nil
	m.state = Idle()
}

// ArmTool arms a drawing tool and clears pending points.
func (m *Manager) ArmTool(t Tool) {
	m.state = Arm(t)
	m.log.Debug("drawing tool armed", "tool", t.String())
}

// ArmedTool returns the currently armed tool.
func (m *Manager) ArmedTool() Tool { return m.state.Tool }

// Cursor returns the pointer cursor the surface should show: crosshair while
// a tool is armed.
func (m *Manager) Cursor() string {
	if m.state.Tool == ToolNone {
		return "default"
	}
	return "crosshair"
}

// Click feeds one chart click through the FSM, rendering the drawing it
// completes, if any. Returns the committed drawing or nil.
func (m *Manager) Click(p Point) *Drawing {
	next, committed := Transition(m.state, p)
	m.state = next
	if committed == nil {
		return nil
	}
	m.render(*committed)
	return committed
}

func (m *Manager) render(d Drawing) {
	item := rendered{drawing: d}
	switch d.Kind {
	case KindHorizontal:
		pl := m.surface.AddPriceLine("H", m.surface.Palette().Drawing, d.Anchors[0].Price)
		item.priceLines = append(item.priceLines, pl)

	case KindTrend:
		m.seq++
		ls := m.surface.AddLineSeries(fmt.Sprintf("trend-%d", m.seq), chart.PaneMain, chart.StyleLine, m.surface.Palette().Drawing)
		ls.SetData([]model.IndicatorPoint{
			{Time: d.Anchors[0].Time, Value: d.Anchors[0].Price},
			{Time: d.Anchors[1].Time, Value: d.Anchors[1].Price},
		})
		item.series = append(item.series, ls)

	case KindFibonacci:
		levels := FibLevels(d.Anchors[0].Price, d.Anchors[1].Price)
		for i, price := range levels {
			title := fmt.Sprintf("%.3f", FibRatios[i])
			pl := m.surface.AddPriceLine(title, fibColors[i], price)
			item.priceLines = append(item.priceLines, pl)
		}
	}
	m.items = append(m.items, item)
	m.log.Info("drawing committed", "kind", int(d.Kind), "anchors", len(d.Anchors))
}

// Count returns the number of committed drawings currently rendered.
func (m *Manager) Count() int { return len(m.items) }

// RenderedHandleCount returns the total number of surface handles the
// manager currently owns.
func (m *Manager) RenderedHandleCount() int {
	n := 0
	for _, item := range m.items {
		n += len(item.priceLines) + len(item.series)
	}
	return n
}

// ClearAll removes every rendered drawing handle from the surface and resets
// internal bookkeeping. The FSM disarms as well.
func (m *Manager) ClearAll() {
	for _, item := range m.items {
		for _, pl := range item.priceLines {
			m.surface.RemovePriceLine(pl)
		}
		for _, ls := range item.series {
			m.surface.RemoveLineSeries(ls)
		}
	}
	m.items = nil
	m.state = Idle()
}

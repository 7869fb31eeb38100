package overlay

import (
	"context"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

const depthLevels = 50

// Depth renders a cumulative order-book profile on its own pane: one series
// per side, each point being the cumulative quantity at the i-th level out
// from the best price (Time carries the level index, not a timestamp).
type Depth struct {
	ctrl *controller.Controller
	api  Backend
	bid  *chart.LineSeries
	ask  *chart.LineSeries
}

func NewDepth(ctrl *controller.Controller, api Backend) *Depth {
	return &Depth{ctrl: ctrl, api: api}
}

func (d *Depth) Name() string { return "depth" }

func (d *Depth) Refresh(ctx context.Context) error {
	snap, err := d.api.Depth(ctx, d.ctrl.Symbol(), depthLevels)
	if err != nil {
		return err
	}
	bids := cumulative(snap.Bids)
	asks := cumulative(snap.Asks)
	d.ctrl.Do(func(s *chart.Surface) {
		d.removeLocked(s)
		p := s.Palette()
		d.bid = s.AddLineSeries("depth-bid", chart.PaneDepth, chart.StyleLine, p.DepthBid)
		d.ask = s.AddLineSeries("depth-ask", chart.PaneDepth, chart.StyleLine, p.DepthAsk)
		d.bid.SetData(bids)
		d.ask.SetData(asks)
	})
	return nil
}

func (d *Depth) Clear() {
	d.ctrl.Do(d.removeLocked)
}

func (d *Depth) removeLocked(s *chart.Surface) {
	if d.bid != nil {
		s.RemoveLineSeries(d.bid)
		d.bid = nil
	}
	if d.ask != nil {
		s.RemoveLineSeries(d.ask)
		d.ask = nil
	}
}

func cumulative(levels []model.DepthLevel) []model.IndicatorPoint {
	out := make([]model.IndicatorPoint, len(levels))
	sum := 0.0
	for i, lv := range levels {
		sum += lv.Qty
		out[i] = model.IndicatorPoint{Time: int64(i), Value: sum}
	}
	return out
}

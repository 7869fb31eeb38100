package overlay

import (
	"context"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Backend is the slice of the dashboard backend the overlays consume.
type Backend interface {
	FundingRate(ctx context.Context, symbol string) ([]model.FundingPoint, error)
	Liquidations(ctx context.Context, symbol string) ([]model.LiquidationZone, error)
	Depth(ctx context.Context, symbol string, limit int) (*model.DepthSnapshot, error)
	Alerts(ctx context.Context) ([]model.AlertLine, error)
	Signals(ctx context.Context, symbol string) ([]model.SignalMarker, error)
	Journal(ctx context.Context, symbol string) ([]model.JournalEntry, error)
}

// Funding renders the funding-rate history as a histogram on its own price
// scale, so the tiny rate values do not squash the candle scale.
type Funding struct {
	ctrl   *controller.Controller
	api    Backend
	series *chart.LineSeries
}

func NewFunding(ctrl *controller.Controller, api Backend) *Funding {
	return &Funding{ctrl: ctrl, api: api}
}

func (f *Funding) Name() string { return "funding" }

func (f *Funding) Refresh(ctx context.Context) error {
	points, err := f.api.FundingRate(ctx, f.ctrl.Symbol())
	if err != nil {
		return err
	}
	data := make([]model.IndicatorPoint, len(points))
	for i, p := range points {
		data[i] = model.IndicatorPoint{Time: p.Time, Value: p.Rate}
	}
	f.ctrl.Do(func(s *chart.Surface) {
		if f.series != nil {
			s.RemoveLineSeries(f.series)
		}
		f.series = s.AddLineSeries("funding", chart.PaneMain, chart.StyleHistogram, s.Palette().Funding)
		f.series.SetScale("funding")
		f.series.SetData(data)
	})
	return nil
}

func (f *Funding) Clear() {
	f.ctrl.Do(func(s *chart.Surface) {
		if f.series != nil {
			s.RemoveLineSeries(f.series)
			f.series = nil
		}
	})
}

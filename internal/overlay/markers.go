package overlay

import (
	"context"
	"fmt"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Signals renders AI-signal history as candle markers in the "signals" group.
type Signals struct {
	ctrl *controller.Controller
	api  Backend
}

func NewSignals(ctrl *controller.Controller, api Backend) *Signals {
	return &Signals{ctrl: ctrl, api: api}
}

func (o *Signals) Name() string { return "signals" }

func (o *Signals) Refresh(ctx context.Context) error {
	ms, err := o.api.Signals(ctx, o.ctrl.Symbol())
	if err != nil {
		return err
	}
	o.ctrl.Do(func(s *chart.Surface) {
		p := s.Palette()
		for i := range ms {
			if ms[i].Color == "" {
				if ms[i].Side == model.SideLong {
					ms[i].Color = p.Up
				} else {
					ms[i].Color = p.Down
				}
			}
		}
		s.SetMarkers("signals", ms)
	})
	return nil
}

func (o *Signals) Clear() {
	o.ctrl.Do(func(s *chart.Surface) { s.ClearMarkers("signals") })
}

// Journal renders trade-journal entries as candle markers in the "journal"
// group, buys below the bar and sells above it like broker fills.
type Journal struct {
	ctrl *controller.Controller
	api  Backend
}

func NewJournal(ctrl *controller.Controller, api Backend) *Journal {
	return &Journal{ctrl: ctrl, api: api}
}

func (o *Journal) Name() string { return "journal" }

func (o *Journal) Refresh(ctx context.Context) error {
	entries, err := o.api.Journal(ctx, o.ctrl.Symbol())
	if err != nil {
		return err
	}
	o.ctrl.Do(func(s *chart.Surface) {
		p := s.Palette()
		ms := make([]model.SignalMarker, len(entries))
		for i, e := range entries {
			side, color := model.SideLong, p.Up
			if e.Side == "sell" {
				side, color = model.SideShort, p.Down
			}
			label := e.Note
			if label == "" {
				label = fmt.Sprintf("%s @ %g", e.Side, e.Price)
			}
			ms[i] = model.SignalMarker{Time: e.Time, Side: side, Label: label, Color: color}
		}
		s.SetMarkers("journal", ms)
	})
	return nil
}

func (o *Journal) Clear() {
	o.ctrl.Do(func(s *chart.Surface) { s.ClearMarkers("journal") })
}

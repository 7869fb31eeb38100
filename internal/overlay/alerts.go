package overlay

import (
	"context"
	"fmt"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
)

// Alerts renders the user's price alerts as price lines. The backend returns
// alerts across all symbols; only those matching the chart's current symbol
// are drawn.
type Alerts struct {
	ctrl  *controller.Controller
	api   Backend
	lines []*chart.PriceLine
}

func NewAlerts(ctrl *controller.Controller, api Backend) *Alerts {
	return &Alerts{ctrl: ctrl, api: api}
}

func (a *Alerts) Name() string { return "alerts" }

func (a *Alerts) Refresh(ctx context.Context) error {
	alerts, err := a.api.Alerts(ctx)
	if err != nil {
		return err
	}
	symbol := a.ctrl.Symbol()
	a.ctrl.Do(func(s *chart.Surface) {
		for _, pl := range a.lines {
			s.RemovePriceLine(pl)
		}
		a.lines = a.lines[:0]
		color := s.Palette().Alert
		for _, al := range alerts {
			if al.Symbol != symbol {
				continue
			}
			title := fmt.Sprintf("Alert %s %g", al.Direction, al.TargetPrice)
			a.lines = append(a.lines, s.AddPriceLine(title, color, al.TargetPrice))
		}
	})
	return nil
}

func (a *Alerts) Clear() {
	a.ctrl.Do(func(s *chart.Surface) {
		for _, pl := range a.lines {
			s.RemovePriceLine(pl)
		}
		a.lines = nil
	})
}

package overlay

import (
	"context"
	"fmt"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
)

// Liquidation renders estimated liquidation clusters as price lines. Line
// titles carry the at-risk side and intensity so the legend reads without a
// tooltip.
type Liquidation struct {
	ctrl  *controller.Controller
	api   Backend
	lines []*chart.PriceLine
}

func NewLiquidation(ctrl *controller.Controller, api Backend) *Liquidation {
	return &Liquidation{ctrl: ctrl, api: api}
}

func (l *Liquidation) Name() string { return "liquidation" }

func (l *Liquidation) Refresh(ctx context.Context) error {
	zones, err := l.api.Liquidations(ctx, l.ctrl.Symbol())
	if err != nil {
		return err
	}
	l.ctrl.Do(func(s *chart.Surface) {
		for _, pl := range l.lines {
			s.RemovePriceLine(pl)
		}
		l.lines = l.lines[:0]
		color := s.Palette().Liquidation
		for _, z := range zones {
			title := fmt.Sprintf("Liq %s %.1f", z.Side, z.Intensity)
			l.lines = append(l.lines, s.AddPriceLine(title, color, z.Price))
		}
	})
	return nil
}

func (l *Liquidation) Clear() {
	l.ctrl.Do(func(s *chart.Surface) {
		for _, pl := range l.lines {
			s.RemovePriceLine(pl)
		}
		l.lines = nil
	})
}

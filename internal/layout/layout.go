// Package layout switches the workspace between a single full-featured chart
// and a grid of lightweight per-symbol charts. Whatever the previous layout
// held is torn down before the next one subscribes, so exactly one layout's
// subscriptions are live at any time.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
)

// Mode is the active layout kind.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeGrid   Mode = "grid"
)

// Factory builds a lite controller for one grid cell.
type Factory func() *controller.Controller

// Cell is one grid slot.
type Cell struct {
	Symbol string
	Ctrl   *controller.Controller
}

// Manager owns the layout state. The primary controller is long-lived — its
// chart state, overlays and drawings survive a round trip through grid mode;
// only its subscription is torn down while the grid is up.
type Manager struct {
	mu      sync.Mutex
	log     *slog.Logger
	primary *controller.Controller
	factory Factory

	mode  Mode
	cells []*Cell
}

// NewManager creates a layout manager in single mode around the primary
// controller.
func NewManager(primary *controller.Controller, factory Factory, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:     log,
		primary: primary,
		factory: factory,
		mode:    ModeSingle,
	}
}

// Mode returns the active layout kind.
func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Primary returns the single-mode controller.
func (m *Manager) Primary() *controller.Controller { return m.primary }

// Cells returns the grid cells, nil in single mode.
func (m *Manager) Cells() []*Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Cell(nil), m.cells...)
}

// SetSingle tears down the grid and brings the primary chart back up on the
// given symbol.
func (m *Manager) SetSingle(ctx context.Context, symbol, interval string) error {
	m.mu.Lock()
	m.teardownCellsLocked()
	m.mode = ModeSingle
	m.mu.Unlock()

	return m.primary.SwitchSymbol(ctx, symbol, interval)
}

// SetGrid tears down whatever is up and creates one lite chart per symbol.
// A cell whose history load fails is dropped with a log line; the rest of the
// grid still comes up. Returns the joined per-cell errors, if any.
func (m *Manager) SetGrid(ctx context.Context, symbols []string, interval string) error {
	if len(symbols) == 0 {
		return fmt.Errorf("grid layout needs at least one symbol")
	}

	m.mu.Lock()
	m.teardownCellsLocked()
	m.mu.Unlock()
	m.primary.Close()

	var cells []*Cell
	var errs []error
	for _, sym := range symbols {
		ctrl := m.factory()
		if err := ctrl.SwitchSymbol(ctx, sym, interval); err != nil {
			m.log.Warn("grid cell failed to load, dropping it", "symbol", sym, "err", err)
			ctrl.Close()
			errs = append(errs, err)
			continue
		}
		cells = append(cells, &Cell{Symbol: sym, Ctrl: ctrl})
	}

	m.mu.Lock()
	m.mode = ModeGrid
	m.cells = cells
	m.mu.Unlock()
	return errors.Join(errs...)
}

// Close tears down everything.
func (m *Manager) Close() {
	m.mu.Lock()
	m.teardownCellsLocked()
	m.mu.Unlock()
	m.primary.Close()
}

func (m *Manager) teardownCellsLocked() {
	for _, c := range m.cells {
		c.Ctrl.Close()
	}
	m.cells = nil
}

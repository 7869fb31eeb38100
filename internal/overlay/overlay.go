// Package overlay manages the optional chart layers fed by the dashboard
// backend: funding-rate histogram, liquidation zones, order-book depth,
// comparison symbol, AI-signal markers, journal markers and alert lines.
//
// Every overlay is independent: it is toggled on its own, fetched on its own,
// and a fetch failure disables only that overlay while the rest of the chart
// keeps rendering.
package overlay

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
)

// Overlay is one toggleable chart layer.
type Overlay interface {
	Name() string
	// Refresh fetches the overlay's data and renders it onto the chart.
	Refresh(ctx context.Context) error
	// Clear removes everything the overlay rendered.
	Clear()
}

// Manager holds the overlay registry for one chart controller.
type Manager struct {
	// opMu serializes toggle/refresh operations so the periodic refresh job
	// and HTTP toggles cannot interleave on one overlay.
	opMu sync.Mutex

	mu       sync.Mutex
	log      *slog.Logger
	ctrl     *controller.Controller
	overlays map[string]Overlay
	enabled  map[string]bool

	// Optional metrics hook, called with the overlay name on fetch failure.
	OnFailure func(name string)
}

// NewManager creates an empty registry bound to a controller.
func NewManager(ctrl *controller.Controller, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:      log,
		ctrl:     ctrl,
		overlays: make(map[string]Overlay),
		enabled:  make(map[string]bool),
	}
}

// Register adds an overlay to the registry, disabled.
func (m *Manager) Register(o Overlay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlays[o.Name()] = o
}

// Names lists registered overlays in sorted order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.overlays))
	for name := range m.overlays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Enabled reports whether an overlay is currently on.
func (m *Manager) Enabled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[name]
}

// Toggle flips one overlay. Enabling fetches and renders immediately; a fetch
// failure leaves the overlay off and returns the error. Disabling clears its
// rendered artifacts.
func (m *Manager) Toggle(ctx context.Context, name string) (bool, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	o, ok := m.overlays[name]
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("unknown overlay %q", name)
	}
	turningOn := !m.enabled[name]
	m.mu.Unlock()

	if !turningOn {
		o.Clear()
		m.setEnabled(name, false)
		return false, nil
	}

	if err := o.Refresh(ctx); err != nil {
		m.failed(name, err)
		return false, fmt.Errorf("overlay %s: %w", name, err)
	}
	m.setEnabled(name, true)
	return true, nil
}

// RefreshAll re-fetches every enabled overlay. Used by the periodic refresh
// job; an overlay that fails is disabled and cleared, the rest continue.
func (m *Manager) RefreshAll(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	for _, name := range m.enabledNames() {
		m.mu.Lock()
		o := m.overlays[name]
		m.mu.Unlock()
		if err := o.Refresh(ctx); err != nil {
			o.Clear()
			m.failed(name, err)
			m.setEnabled(name, false)
		}
	}
}

// OnSymbolSwitch re-renders enabled overlays against the new chart surface.
// An overlay that fails for the new symbol is cleared and disabled — clearing
// matters even though the old surface is gone, because an overlay may own
// resources beyond surface handles (the comparison overlay's live
// subscription).
func (m *Manager) OnSymbolSwitch(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	for _, name := range m.enabledNames() {
		m.mu.Lock()
		o := m.overlays[name]
		m.mu.Unlock()
		if err := o.Refresh(ctx); err != nil {
			o.Clear()
			m.failed(name, err)
			m.setEnabled(name, false)
		}
	}
}

// ClearAll disables and clears every overlay.
func (m *Manager) ClearAll() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	for _, name := range m.enabledNames() {
		m.mu.Lock()
		o := m.overlays[name]
		m.mu.Unlock()
		o.Clear()
		m.setEnabled(name, false)
	}
}

func (m *Manager) enabledNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name, on := range m.enabled {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (m *Manager) setEnabled(name string, on bool) {
	m.mu.Lock()
	m.enabled[name] = on
	m.mu.Unlock()
}

func (m *Manager) failed(name string, err error) {
	m.log.Warn("overlay fetch failed, overlay disabled", "overlay", name, "err", err)
	if m.OnFailure != nil {
		m.OnFailure(name)
	}
}

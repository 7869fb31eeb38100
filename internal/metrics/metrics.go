// Package metrics exposes Prometheus metrics and the health endpoint for the
// chart service.
package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart service.
type Metrics struct {
	FeedMessages    prometheus.Counter
	FeedDecodeDrops prometheus.Counter
	ActiveStreams   prometheus.Gauge
	WSClients       prometheus.Gauge
	BatchComputeDur prometheus.Histogram
	OverlayFailures *prometheus.CounterVec
	SymbolSwitches  prometheus.Counter
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		FeedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_feed_messages_total",
			Help: "Total kline messages received from the exchange stream",
		}),
		FeedDecodeDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_feed_decode_drops_total",
			Help: "Stream messages dropped because they failed to decode",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartd_active_streams",
			Help: "Currently open live kline subscriptions",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartd_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
		BatchComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartd_batch_compute_duration_seconds",
			Help:    "Full indicator batch pass latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		OverlayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartd_overlay_failures_total",
			Help: "Overlay fetches that failed and disabled the overlay",
		}, []string{"overlay"}),
		SymbolSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartd_symbol_switches_total",
			Help: "Completed symbol switches",
		}),
	}

	prometheus.MustRegister(
		m.FeedMessages,
		m.FeedDecodeDrops,
		m.ActiveStreams,
		m.WSClients,
		m.BatchComputeDur,
		m.OverlayFailures,
		m.SymbolSwitches,
	)
	return m
}

// Handler returns the /metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HealthStatus tracks dependency health for /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	StreamOpen     bool
	RedisConnected bool
	SQLiteOK       bool

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// SetStreamOpen records whether the primary live subscription is up.
func (h *HealthStatus) SetStreamOpen(v bool) {
	h.mu.Lock()
	h.StreamOpen = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency and connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the prefs database and records latency and health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency probes. Nil dependencies are
// skipped.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckSQLite(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles /healthz.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.StreamOpen {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	out := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		StreamOpen      bool    `json:"stream_open"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          status,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		StreamOpen:      h.StreamOpen,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(out)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"

	"github.com/SonBongKyun/Ryzm-sub000/config"
	"github.com/SonBongKyun/Ryzm-sub000/internal/api"
	"github.com/SonBongKyun/Ryzm-sub000/internal/backend"
	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/drawing"
	"github.com/SonBongKyun/Ryzm-sub000/internal/feed"
	"github.com/SonBongKyun/Ryzm-sub000/internal/gateway"
	"github.com/SonBongKyun/Ryzm-sub000/internal/layout"
	"github.com/SonBongKyun/Ryzm-sub000/internal/logger"
	"github.com/SonBongKyun/Ryzm-sub000/internal/metrics"
	"github.com/SonBongKyun/Ryzm-sub000/internal/overlay"
	"github.com/SonBongKyun/Ryzm-sub000/internal/pricebus"
	"github.com/SonBongKyun/Ryzm-sub000/internal/store/prefs"
)

func main() {
	configPath := flag.String("config", "chartd.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Service:  "chartd",
		Level:    parseLevel(cfg.Log.Level),
		FilePath: cfg.Log.File,
	})
	log.Info("chartd starting", "listen", cfg.ListenAddr, "symbol", cfg.Chart.Symbol)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prom := metrics.New()
	health := metrics.NewHealthStatus()

	// ---- Prefs store (session restore) ----
	if dir := filepath.Dir(cfg.PrefsPath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	store, err := prefs.Open(cfg.PrefsPath, log)
	if err != nil {
		log.Error("prefs open failed", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	sess, restored, err := store.Load()
	if err != nil {
		log.Warn("session restore failed, using config defaults", "err", err)
	}
	if restored {
		if sess.Symbol != "" {
			cfg.Chart.Symbol = sess.Symbol
		}
		if sess.Interval != "" {
			cfg.Chart.Interval = sess.Interval
		}
		if sess.Theme != "" {
			cfg.Chart.Theme = sess.Theme
		}
		log.Info("session restored", "symbol", cfg.Chart.Symbol, "interval", cfg.Chart.Interval, "layout", sess.Layout)
	}

	// ---- Price bus (optional) ----
	var bus *pricebus.Publisher
	if cfg.Redis.Enabled {
		bus, err = pricebus.New(pricebus.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			log.Warn("redis unavailable, continuing without price bus", "err", err)
			bus = nil
		} else {
			defer bus.Close()
		}
	}

	// ---- Feed + backend clients ----
	feedClient := feed.NewClient(feed.ClientConfig{
		BaseURL: cfg.Feed.BaseURL,
		WSURL:   cfg.Feed.WSURL,
	}, log)
	feedClient.OnMessage = func() { prom.FeedMessages.Inc() }
	feedClient.OnDecodeError = func() { prom.FeedDecodeDrops.Inc() }

	backendClient := backend.NewClient(cfg.Backend.BaseURL, log)

	// ---- WebSocket gateway ----
	hub := gateway.NewHub(log)
	hub.OnClientCount = func(n int) { prom.WSClients.Set(float64(n)) }

	notifiers := controller.Notifiers{&gateway.Notifier{Hub: hub}}
	if bus != nil {
		notifiers = append(notifiers, bus)
	}

	// ---- Primary chart controller ----
	dataFeed := controller.BinanceFeed{Client: feedClient}
	palette := chart.PaletteByName(cfg.Chart.Theme)

	var openStreams atomic.Int64
	primary := controller.New(controller.Config{
		Feed:         dataFeed,
		Log:          log,
		Palette:      palette,
		HistoryLimit: cfg.Feed.HistoryLimit,
		Precision:    cfg.Chart.Precision,
		Notifier:     notifiers,
		OnBatch:      func(d time.Duration) { prom.BatchComputeDur.Observe(d.Seconds()) },
		OnStreamChange: func(delta int) {
			prom.ActiveStreams.Add(float64(delta))
			health.SetStreamOpen(openStreams.Add(int64(delta)) > 0)
		},
	})

	loadCtx := logger.WithTraceID(ctx, logger.GenerateTraceID(cfg.Chart.Symbol, time.Now()))
	if err := primary.SwitchSymbol(loadCtx, cfg.Chart.Symbol, cfg.Chart.Interval); err != nil {
		log.Error("initial load failed", append([]any{"symbol", cfg.Chart.Symbol, "err", err}, logger.LogWithTrace(loadCtx)...)...)
		os.Exit(1)
	}
	log.Info("initial chart loaded", append([]any{"symbol", cfg.Chart.Symbol, "interval", cfg.Chart.Interval}, logger.LogWithTrace(loadCtx)...)...)
	prom.SymbolSwitches.Inc()

	if restored {
		restoreIndicators(primary, sess.Indicators, log)
	}

	// ---- Drawings ----
	var drawings *drawing.Manager
	primary.Do(func(s *chart.Surface) { drawings = drawing.NewManager(s, log) })

	// ---- Overlays ----
	overlays := overlay.NewManager(primary, log)
	overlays.OnFailure = func(name string) { prom.OverlayFailures.WithLabelValues(name).Inc() }
	overlays.Register(overlay.NewFunding(primary, backendClient))
	overlays.Register(overlay.NewLiquidation(primary, backendClient))
	overlays.Register(overlay.NewDepth(primary, backendClient))
	overlays.Register(overlay.NewAlerts(primary, backendClient))
	overlays.Register(overlay.NewSignals(primary, backendClient))
	overlays.Register(overlay.NewJournal(primary, backendClient))
	comparison := overlay.NewComparison(primary, dataFeed, cfg.Feed.HistoryLimit)
	overlays.Register(comparison)

	if restored {
		restoreOverlays(ctx, overlays, sess.Overlays, log)
	}

	// ---- Layout ----
	grid := layout.NewManager(primary, func() *controller.Controller {
		return controller.New(controller.Config{
			Feed:         dataFeed,
			Log:          log,
			Palette:      palette,
			Profile:      controller.ProfileLite,
			HistoryLimit: cfg.Feed.HistoryLimit,
			Precision:    cfg.Chart.Precision,
			OnStreamChange: func(delta int) {
				prom.ActiveStreams.Add(float64(delta))
			},
		})
	}, log)

	if restored && sess.Layout == string(layout.ModeGrid) && len(sess.GridSyms) > 0 {
		overlays.ClearAll()
		if err := grid.SetGrid(ctx, sess.GridSyms, cfg.Chart.Interval); err != nil {
			log.Warn("grid restore incomplete", "err", err)
		}
	}

	// ---- Periodic overlay refresh ----
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.OverlayRefresh, func() {
		refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		overlays.RefreshAll(refreshCtx)
	}); err != nil {
		log.Error("bad overlay refresh schedule", "spec", cfg.OverlayRefresh, "err", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	health.StartLivenessChecker(ctx, redisClient(bus), store.DB(), 10*time.Second)

	// ---- HTTP API ----
	srv := api.NewServer(api.Deps{
		Log:        log,
		Layout:     grid,
		Overlays:   overlays,
		Drawings:   drawings,
		Comparison: comparison,
		Hub:        hub,
		Health:     health,
		OnSymbolSwitch: func() {
			prom.SymbolSwitches.Inc()
		},
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)

	if err := store.Save(currentSession(primary, overlays, grid)); err != nil {
		log.Warn("session save failed", "err", err)
	}

	grid.Close()
	log.Info("shutdown complete")
}

// currentSession captures the running state for the next start.
func currentSession(primary *controller.Controller, overlays *overlay.Manager, grid *layout.Manager) prefs.Session {
	sess := prefs.Session{
		Symbol:     primary.Symbol(),
		Interval:   primary.Interval(),
		Theme:      primary.Export().Theme,
		Indicators: make(map[string]bool),
		Overlays:   make(map[string]bool),
		Layout:     string(grid.Mode()),
	}
	for _, k := range controller.Kinds() {
		sess.Indicators[k.String()] = primary.Visible(k)
	}
	for _, name := range overlays.Names() {
		sess.Overlays[name] = overlays.Enabled(name)
	}
	for _, cell := range grid.Cells() {
		sess.GridSyms = append(sess.GridSyms, cell.Symbol)
	}
	return sess
}

func restoreIndicators(primary *controller.Controller, saved map[string]bool, log *slog.Logger) {
	for name, want := range saved {
		kind, err := controller.ParseKind(name)
		if err != nil {
			continue
		}
		if primary.Visible(kind) != want {
			if _, err := primary.Toggle(kind); err != nil {
				log.Warn("indicator restore skipped", "kind", name, "err", err)
			}
		}
	}
}

func restoreOverlays(ctx context.Context, overlays *overlay.Manager, saved map[string]bool, log *slog.Logger) {
	for name, want := range saved {
		if !want || overlays.Enabled(name) {
			continue
		}
		if _, err := overlays.Toggle(ctx, name); err != nil {
			log.Warn("overlay restore skipped", "overlay", name, "err", err)
		}
	}
}

func redisClient(bus *pricebus.Publisher) *goredis.Client {
	if bus == nil {
		return nil
	}
	return bus.Client()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package api exposes the chart service's HTTP surface: chart control
// (symbol, interval, theme, indicator toggles), overlays, drawings, layout,
// snapshot export, the WebSocket stream and the gap-backfill endpoint.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SonBongKyun/Ryzm-sub000/internal/chart"
	"github.com/SonBongKyun/Ryzm-sub000/internal/controller"
	"github.com/SonBongKyun/Ryzm-sub000/internal/drawing"
	"github.com/SonBongKyun/Ryzm-sub000/internal/gateway"
	"github.com/SonBongKyun/Ryzm-sub000/internal/layout"
	"github.com/SonBongKyun/Ryzm-sub000/internal/logger"
	"github.com/SonBongKyun/Ryzm-sub000/internal/metrics"
	"github.com/SonBongKyun/Ryzm-sub000/internal/overlay"
)

// Deps are the server's collaborators.
type Deps struct {
	Log        *slog.Logger
	Layout     *layout.Manager
	Overlays   *overlay.Manager
	Drawings   *drawing.Manager
	Comparison *overlay.Comparison
	Hub        *gateway.Hub
	Health     http.Handler

	// Optional, called after each completed symbol switch.
	OnSymbolSwitch func()
}

// Server is the HTTP API.
type Server struct {
	Deps
}

// NewServer creates the API server.
func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	return &Server{Deps: deps}
}

// Router builds the chi router.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	if s.Health != nil {
		r.Method(http.MethodGet, "/healthz", s.Health)
	}
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", s.Hub.HandleWS)
	r.Get("/api/replay", s.handleReplay)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/snapshot", s.handleSnapshot)

		r.Route("/chart", func(r chi.Router) {
			r.Post("/symbol", s.handleSymbol)
			r.Post("/interval", s.handleInterval)
			r.Post("/rebatch", s.handleRebatch)
			r.Post("/reconnect", s.handleReconnect)
			r.Post("/theme", s.handleTheme)
			r.Post("/indicators/{kind}/toggle", s.handleIndicatorToggle)
		})

		r.Route("/overlays", func(r chi.Router) {
			r.Get("/", s.handleOverlayList)
			r.Post("/{name}/toggle", s.handleOverlayToggle)
		})

		r.Post("/layout", s.handleLayout)

		r.Route("/drawings", func(r chi.Router) {
			r.Post("/tool", s.handleDrawingTool)
			r.Post("/click", s.handleDrawingClick)
			r.Post("/clear", s.handleDrawingClear)
		})
	})

	return r
}

func (s *Server) primary() *controller.Controller { return s.Layout.Primary() }

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, err error) {
	respondJSON(w, code, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ── Chart state ──

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p := s.primary()
	indicators := map[string]bool{}
	for _, kind := range controller.Kinds() {
		indicators[kind.String()] = p.Visible(kind)
	}
	overlays := map[string]bool{}
	for _, name := range s.Overlays.Names() {
		overlays[name] = s.Overlays.Enabled(name)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"symbol":     p.Symbol(),
		"interval":   p.Interval(),
		"legend":     p.Legend(),
		"mode":       s.Layout.Mode(),
		"stream":     p.StreamOpen(),
		"indicators": indicators,
		"overlays":   overlays,
		"tool":       s.Drawings.ArmedTool().String(),
		"cursor":     s.Drawings.Cursor(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.primary().Export())
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	}
	if err := decodeBody(r, &req); err != nil || req.Symbol == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "symbol is required"})
		return
	}
	p := s.primary()
	if req.Interval == "" {
		req.Interval = p.Interval()
		if req.Interval == "" {
			req.Interval = "1m"
		}
	}
	// One trace ID covers the whole switch: history load, overlay re-render.
	ctx := logger.WithTraceID(r.Context(), logger.GenerateTraceID(req.Symbol, time.Now()))
	if err := p.SwitchSymbol(ctx, req.Symbol, req.Interval); err != nil {
		s.Log.Error("symbol switch failed", append([]any{"symbol", req.Symbol, "err", err}, logger.LogWithTrace(ctx)...)...)
		respondError(w, http.StatusBadGateway, err)
		return
	}
	// The switch replaced the surface: re-target drawings, re-render overlays.
	p.Do(func(surface *chart.Surface) { s.Drawings.Attach(surface) })
	s.Overlays.OnSymbolSwitch(ctx)
	if s.OnSymbolSwitch != nil {
		s.OnSymbolSwitch()
	}
	s.Log.Info("symbol switched", append([]any{"symbol", req.Symbol, "interval", req.Interval}, logger.LogWithTrace(ctx)...)...)
	respondJSON(w, http.StatusOK, map[string]string{"symbol": req.Symbol, "interval": req.Interval, "legend": p.Legend()})
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interval string `json:"interval"`
	}
	if err := decodeBody(r, &req); err != nil || req.Interval == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "interval is required"})
		return
	}
	if err := s.primary().SwitchInterval(r.Context(), req.Interval); err != nil {
		respondError(w, http.StatusBadGateway, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"interval": req.Interval})
}

func (s *Server) handleRebatch(w http.ResponseWriter, r *http.Request) {
	if err := s.primary().Rebatch(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.primary().Reconnect(r.Context()); err != nil {
		respondError(w, http.StatusBadGateway, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeBody(r, &req); err != nil || req.Theme == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "theme is required"})
		return
	}
	palette := chart.PaletteByName(req.Theme)
	s.primary().ApplyTheme(palette)
	for _, cell := range s.Layout.Cells() {
		cell.Ctrl.ApplyTheme(palette)
	}
	respondJSON(w, http.StatusOK, map[string]string{"theme": palette.Name})
}

func (s *Server) handleIndicatorToggle(w http.ResponseWriter, r *http.Request) {
	kind, err := controller.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	visible, err := s.primary().Toggle(kind)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"kind": kind.String(), "visible": visible})
}

// ── Overlays ──

func (s *Server) handleOverlayList(w http.ResponseWriter, r *http.Request) {
	out := map[string]bool{}
	for _, name := range s.Overlays.Names() {
		out[name] = s.Overlays.Enabled(name)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleOverlayToggle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	// The comparison overlay takes its symbol from the request body.
	if name == "comparison" && s.Comparison != nil {
		var req struct {
			Symbol string `json:"symbol"`
		}
		if r.ContentLength > 0 {
			if err := decodeBody(r, &req); err == nil && req.Symbol != "" {
				s.Comparison.SetSymbol(req.Symbol)
			}
		}
	}

	enabled, err := s.Overlays.Toggle(r.Context(), name)
	if err != nil {
		respondError(w, http.StatusBadGateway, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"overlay": name, "enabled": enabled})
}

// ── Layout ──

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode     string   `json:"mode"`
		Symbol   string   `json:"symbol"`
		Symbols  []string `json:"symbols"`
		Interval string   `json:"interval"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Interval == "" {
		req.Interval = "1m"
	}

	switch layout.Mode(req.Mode) {
	case layout.ModeSingle:
		if req.Symbol == "" {
			req.Symbol = s.primary().Symbol()
		}
		if err := s.Layout.SetSingle(r.Context(), req.Symbol, req.Interval); err != nil {
			respondError(w, http.StatusBadGateway, err)
			return
		}
		s.primary().Do(func(surface *chart.Surface) { s.Drawings.Attach(surface) })
		s.Overlays.OnSymbolSwitch(r.Context())
	case layout.ModeGrid:
		s.Overlays.ClearAll()
		if err := s.Layout.SetGrid(r.Context(), req.Symbols, req.Interval); err != nil && len(s.Layout.Cells()) == 0 {
			respondError(w, http.StatusBadGateway, err)
			return
		}
	default:
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be single or grid"})
		return
	}

	cells := make([]string, 0)
	for _, c := range s.Layout.Cells() {
		cells = append(cells, c.Symbol)
	}
	respondJSON(w, http.StatusOK, map[string]any{"mode": s.Layout.Mode(), "cells": cells})
}

// ── Drawings ──

func (s *Server) handleDrawingTool(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tool string `json:"tool"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	tool, ok := drawing.ParseTool(req.Tool)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tool " + req.Tool})
		return
	}
	s.primary().Do(func(*chart.Surface) { s.Drawings.ArmTool(tool) })
	respondJSON(w, http.StatusOK, map[string]string{"tool": tool.String(), "cursor": s.Drawings.Cursor()})
}

func (s *Server) handleDrawingClick(w http.ResponseWriter, r *http.Request) {
	var p drawing.Point
	if err := decodeBody(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	var committed *drawing.Drawing
	s.primary().Do(func(*chart.Surface) { committed = s.Drawings.Click(p) })
	respondJSON(w, http.StatusOK, map[string]any{
		"committed": committed != nil,
		"count":     s.Drawings.Count(),
		"tool":      s.Drawings.ArmedTool().String(),
		"cursor":    s.Drawings.Cursor(),
	})
}

func (s *Server) handleDrawingClear(w http.ResponseWriter, r *http.Request) {
	s.primary().Do(func(*chart.Surface) { s.Drawings.ClearAll() })
	respondJSON(w, http.StatusOK, map[string]any{"count": 0})
}

// ── Gap backfill ──

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	from, _ := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	to, _ := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if channel == "" || from <= 0 || to < from {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "channel, from and to are required"})
		return
	}
	envelopes := s.Hub.ReplayRange(channel, from, to)
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"channel":"` + channel + `","envelopes":[`))
	for i, env := range envelopes {
		if i > 0 {
			w.Write([]byte{','})
		}
		w.Write(env)
	}
	w.Write([]byte("]}"))
}

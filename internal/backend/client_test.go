package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestGetJSON_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"alerts":[{"id":1,"symbol":"BTCUSDT","direction":"above","target_price":31000}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	alerts, err := c.Alerts(context.Background())
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("call count: got %d, want 2 (one retry)", calls.Load())
	}
	if len(alerts) != 1 || alerts[0].Symbol != "BTCUSDT" || alerts[0].TargetPrice != 31000 {
		t.Errorf("decoded alerts wrong: %+v", alerts)
	}
}

func TestGetJSON_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Alerts(context.Background()); err == nil {
		t.Fatal("expected error on 404")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not retry: %d calls", calls.Load())
	}
}

func TestGetJSON_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.FundingRate(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != defaultRetries {
		t.Errorf("call count: got %d, want %d", calls.Load(), defaultRetries)
	}
}

func TestDepth_DecodesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "ETHUSDT" {
			t.Errorf("symbol query: got %s", got)
		}
		w.Write([]byte(`{"symbol":"ETHUSDT","bids":[{"price":2000,"qty":3}],"asks":[{"price":2001,"qty":1.5}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	snap, err := c.Depth(context.Background(), "ETHUSDT", 50)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if len(snap.Bids) != 1 || len(snap.Asks) != 1 || snap.Bids[0].Price != 2000 {
		t.Errorf("snapshot wrong: %+v", snap)
	}
}

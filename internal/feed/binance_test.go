package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const sampleKlines = `[
  [1700000000000, "30000.10", "30100.00", "29950.50", "30050.25", "123.456", 1700003599999, "0", 100, "0", "0", "0"],
  [1700003600000, "30050.25", "30200.00", "30000.00", "30150.00", "98.765", 1700007199999, "0", 90, "0", "0", "0"]
]`

func TestLoadHistory_ParsesOrderedCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol query: got %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "500" {
			t.Errorf("limit query: got %s", got)
		}
		w.Write([]byte(sampleKlines))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	candles, err := c.LoadHistory(context.Background(), "btcusdt", "1h", 0)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("candle count: got %d, want 2", len(candles))
	}
	first := candles[0]
	if first.Time != 1700000000 {
		t.Errorf("time: got %d, want 1700000000 (seconds)", first.Time)
	}
	if first.Open != 30000.10 || first.High != 30100 || first.Low != 29950.50 || first.Close != 30050.25 || first.Volume != 123.456 {
		t.Errorf("parsed fields wrong: %+v", first)
	}
	if candles[0].Time >= candles[1].Time {
		t.Error("candles must be oldest→newest")
	}
}

func TestLoadHistory_ErrorStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL}, nil)
	if _, err := c.LoadHistory(context.Background(), "NOPE", "1h", 10); err == nil {
		t.Fatal("expected error on 4xx response")
	}
}

func TestParseKlineMessage(t *testing.T) {
	raw := []byte(`{"e":"kline","E":1700000001000,"s":"BTCUSDT","k":{"t":1700000000000,"o":"30000.1","h":"30100","l":"29950.5","c":"30050.25","v":"12.5","x":true}}`)
	u, err := parseKlineMessage(raw)
	if err != nil {
		t.Fatalf("parseKlineMessage: %v", err)
	}
	if u.Candle.Time != 1700000000 || u.Candle.Close != 30050.25 || !u.Final {
		t.Errorf("parsed update wrong: %+v", u)
	}
}

func TestParseKlineMessage_Malformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"e":"trade","k":{}}`,
		`{"e":"kline","k":{"t":1700000000000,"o":"abc","h":"1","l":"1","c":"1","v":"1"}}`,
	}
	for _, raw := range cases {
		if _, err := parseKlineMessage([]byte(raw)); err == nil {
			t.Errorf("expected decode error for %q", raw)
		}
	}
}

// wsTestServer upgrades connections and streams the given messages.
func wsTestServer(t *testing.T, messages []string, thenClose bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		if thenClose {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
			return
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func klineJSON(openTimeMs int64, close string, final bool) string {
	b, _ := json.Marshal(map[string]any{
		"e": "kline",
		"k": map[string]any{
			"t": openTimeMs, "o": "100", "h": "110", "l": "90", "c": close, "v": "5", "x": final,
		},
	})
	return string(b)
}

func TestOpenLiveStream_DeliversUpdatesThenCloses(t *testing.T) {
	srv := wsTestServer(t, []string{
		klineJSON(1700000000000, "101.5", false),
		`malformed garbage`,
		klineJSON(1700000000000, "102.0", true),
	}, true)
	defer srv.Close()

	c := NewClient(ClientConfig{WSURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, nil)
	sub, err := c.OpenLiveStream(context.Background(), "BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("OpenLiveStream: %v", err)
	}
	defer sub.Close()

	var got []float64
	for u := range sub.Updates() {
		got = append(got, u.Candle.Close)
		if u.Symbol != "BTCUSDT" || u.Interval != "1h" {
			t.Errorf("update not tagged with subscription key: %+v", u)
		}
	}
	// Malformed message dropped, stream stayed open for the final update
	if len(got) != 2 || got[0] != 101.5 || got[1] != 102.0 {
		t.Fatalf("updates: got %v, want [101.5 102]", got)
	}
}

func TestSubscription_CloseEndsUpdates(t *testing.T) {
	srv := wsTestServer(t, nil, false)
	defer srv.Close()

	c := NewClient(ClientConfig{WSURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, nil)
	sub, err := c.OpenLiveStream(context.Background(), "ETHUSDT", "1m")
	if err != nil {
		t.Fatalf("OpenLiveStream: %v", err)
	}

	sub.Close()
	sub.Close() // idempotent

	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Fatal("no updates were sent; channel should just close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("updates channel did not close after Close()")
	}
}

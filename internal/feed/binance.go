// Package feed is the market-data feed adapter: a bounded historical kline
// query over REST and a per-(symbol, interval) live kline subscription over
// WebSocket. It owns transport and decoding only — retry policy and
// reconnection decisions belong to callers.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

const (
	defaultBaseURL = "https://api.binance.com"
	defaultWSURL   = "wss://stream.binance.com:9443"
)

// ClientConfig configures the feed client.
type ClientConfig struct {
	BaseURL string // REST base, e.g. "https://api.binance.com"
	WSURL   string // stream base, e.g. "wss://stream.binance.com:9443"
}

// Client talks to the market-data provider.
type Client struct {
	baseURL string
	wsURL   string
	http    *http.Client
	dialer  *websocket.Dialer
	log     *slog.Logger

	// Optional metrics hooks
	OnMessage     func()
	OnDecodeError func()
}

// NewClient creates a feed client. A nil logger falls back to slog.Default.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.WSURL == "" {
		cfg.WSURL = defaultWSURL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		wsURL:   strings.TrimRight(cfg.WSURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// LoadHistory fetches one bounded window of OHLCV candles, oldest→newest.
// A network or parse failure returns an error and nothing else — the caller's
// existing state stays untouched. No retry here: retry policy is owned by the
// backend client's resilient fetch wrapper, not duplicated in this layer.
func (c *Client) LoadHistory(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	if limit <= 0 {
		limit = 500
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/klines?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build klines request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: klines request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("feed: klines %s %s: status %d: %s", symbol, interval, resp.StatusCode, body)
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("feed: decode klines: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("feed: parse kline row: %w", err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseKlineRow converts one provider kline array into a candle. The row is
// [openTimeMs, "open", "high", "low", "close", "volume", ...] with prices as
// numeric strings.
func parseKlineRow(row []json.RawMessage) (model.Candle, error) {
	if len(row) < 6 {
		return model.Candle{}, fmt.Errorf("short row: %d fields", len(row))
	}

	var openTimeMs int64
	if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
		return model.Candle{}, fmt.Errorf("open time: %w", err)
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return model.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Candle{}, fmt.Errorf("field %d %q: %w", i, s, err)
		}
		fields[i-1] = v
	}

	return model.Candle{
		Time:   openTimeMs / 1000,
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}

// OpenLiveStream opens one push subscription for a (symbol, interval) pair.
// Updates arrive as typed events on the subscription's channel; the channel
// closes when the transport closes or errors. This layer does not
// auto-reconnect — the owning controller decides whether and when to re-open.
func (c *Client) OpenLiveStream(ctx context.Context, symbol, interval string) (*Subscription, error) {
	streamURL := fmt.Sprintf("%s/ws/%s@kline_%s", c.wsURL, strings.ToLower(symbol), interval)

	conn, _, err := c.dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: dial %s: %w", streamURL, err)
	}
	c.log.Info("live stream opened", "symbol", symbol, "interval", interval)

	sub := newSubscription(symbol, interval, conn)
	go c.readLoop(sub)
	return sub, nil
}

// readLoop pumps decoded kline updates into the subscription channel until
// the transport ends. Malformed messages are dropped singly; the subscription
// stays open.
func (c *Client) readLoop(sub *Subscription) {
	defer close(sub.updates)

	for {
		_, msg, err := sub.conn.ReadMessage()
		if err != nil {
			if !sub.closed() {
				c.log.Warn("live stream transport ended",
					"symbol", sub.symbol, "interval", sub.interval, "err", err)
			}
			return
		}
		if c.OnMessage != nil {
			c.OnMessage()
		}

		update, err := parseKlineMessage(msg)
		if err != nil {
			c.log.Debug("dropping malformed live message", "symbol", sub.symbol, "err", err)
			if c.OnDecodeError != nil {
				c.OnDecodeError()
			}
			continue
		}
		update.Symbol = sub.symbol
		update.Interval = sub.interval
		sub.updates <- update
	}
}

// klineMessage is the provider's kline stream payload.
type klineMessage struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"` // epoch ms; binds "E" exactly so it is not case-folded into "e"
	Kline     struct {
		OpenTime int64  `json:"t"` // bar open, epoch ms
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Final    bool   `json:"x"` // bar closed
	} `json:"k"`
}

// parseKlineMessage decodes one live message into a candle update.
func parseKlineMessage(raw []byte) (model.CandleUpdate, error) {
	var msg klineMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return model.CandleUpdate{}, fmt.Errorf("unmarshal: %w", err)
	}
	if msg.EventType != "kline" {
		return model.CandleUpdate{}, fmt.Errorf("unexpected event type %q", msg.EventType)
	}

	k := msg.Kline
	fields := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.CandleUpdate{}, fmt.Errorf("field %d %q: %w", i, s, err)
		}
		fields[i] = v
	}

	return model.CandleUpdate{
		Candle: model.Candle{
			Time:   k.OpenTime / 1000,
			Open:   fields[0],
			High:   fields[1],
			Low:    fields[2],
			Close:  fields[3],
			Volume: fields[4],
		},
		Final: k.Final,
	}, nil
}

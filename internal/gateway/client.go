package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Client is a single WebSocket peer. A slow client's send queue fills and
// messages are dropped rather than stalling the broadcaster.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// Subscribed symbols. Empty set means receive everything.
	subMu   sync.RWMutex
	symbols map[string]bool
}

// sendInitialState replays the latest envelope of every channel so a fresh
// client renders without waiting for the next live tick.
func (c *Client) sendInitialState() {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	for channel, entry := range c.hub.latest {
		envelope, _ := json.Marshal(map[string]any{
			"channel": channel,
			"data":    json.RawMessage(entry.Data),
			"ts":      entry.TS.Format(time.RFC3339Nano),
			"initial": true,
		})
		select {
		case c.send <- envelope:
		default:
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// Coalesce queued messages into one frame, newline separated.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var base struct {
			Type    string   `json:"type"`
			Symbols []string `json:"symbols"`
			Ping    int64    `json:"ping"`
		}
		if json.Unmarshal(msg, &base) != nil {
			continue
		}

		switch base.Type {
		case "subscribe":
			c.setSymbols(base.Symbols)
		default:
			if base.Ping > 0 {
				pong, _ := json.Marshal(map[string]any{
					"type":      "pong",
					"ping":      base.Ping,
					"server_ts": time.Now().UnixMilli(),
				})
				select {
				case c.send <- pong:
				default:
				}
			}
		}
	}
}

func (c *Client) setSymbols(symbols []string) {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[s] = true
	}
	c.subMu.Lock()
	c.symbols = set
	c.subMu.Unlock()
}

// matchesChannel reports whether this client wants a channel's messages.
// Channels carry the symbol as their second colon-separated segment; channels
// without one (control, metrics) always deliver.
func (c *Client) matchesChannel(channel string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.symbols) == 0 {
		return true
	}
	symbol := channelSymbol(channel)
	if symbol == "" {
		return true
	}
	return c.symbols[symbol]
}

// channelSymbol extracts the symbol from "candle:BTCUSDT:1m" or
// "legend:BTCUSDT". Returns "" for channels without a symbol segment.
func channelSymbol(channel string) string {
	start := -1
	for i := 0; i < len(channel); i++ {
		if channel[i] == ':' {
			if start < 0 {
				start = i + 1
				continue
			}
			return channel[start:i]
		}
	}
	if start < 0 {
		return ""
	}
	return channel[start:]
}

// Package gateway fans chart updates out to WebSocket clients. The hub keeps
// the latest envelope per channel for connect-time replay, a per-channel
// replay buffer for gap backfill, and per-channel sequence numbers so clients
// can detect missed messages.
//
// Channels are "candle:{SYMBOL}:{interval}" for live bar revisions and
// "legend:{SYMBOL}" for the refreshed legend line.
package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub manages WebSocket clients and channel fan-out.
type Hub struct {
	log *slog.Logger

	mu          sync.RWMutex
	clients     map[*Client]bool
	latest      map[string]latestEntry
	channelSeqs map[string]int64
	replayBufs  map[string]*ReplayBuffer
	seq         int64

	// Optional metrics hook, called with the new client count on
	// connect/disconnect.
	OnClientCount func(n int)
}

type latestEntry struct {
	Data []byte
	TS   time.Time
	Seq  int64
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:         log,
		clients:     make(map[*Client]bool),
		latest:      make(map[string]latestEntry),
		channelSeqs: make(map[string]int64),
		replayBufs:  make(map[string]*ReplayBuffer),
	}
}

// HandleWS upgrades the connection and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.log.Info("ws client connected", "total", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go client.sendInitialState()
	go client.writePump()
	go client.readPump()
}

// removeClient unregisters a client and closes its send queue.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.send)

	h.log.Info("ws client disconnected", "total", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// LatestAll returns a copy of the latest payload per channel.
func (h *Hub) LatestAll() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}

// ChannelSeq returns the current sequence number for a channel.
func (h *Hub) ChannelSeq(channel string) int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelSeqs[channel]
}

// ReplayRange returns buffered envelopes for a channel with channel_seq in
// [fromSeq, toSeq]. Backs the gap-backfill REST endpoint.
func (h *Hub) ReplayRange(channel string, fromSeq, toSeq int64) [][]byte {
	h.mu.RLock()
	rb, ok := h.replayBufs[channel]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return rb.Range(fromSeq, toSeq)
}

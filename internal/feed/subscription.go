package feed

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// Subscription is one live kline stream handle. Updates() delivers decoded
// candle updates in arrival order, which the upstream transport guarantees is
// time-monotonic; the channel closes when the transport ends or Close is
// called. A closed handle never emits again — tearing one down before
// replacing it is what keeps a rebuilt chart safe from stale updates.
type Subscription struct {
	symbol   string
	interval string
	conn     *websocket.Conn
	updates  chan model.CandleUpdate

	closeOnce sync.Once
	closing   atomic.Bool
}

func newSubscription(symbol, interval string, conn *websocket.Conn) *Subscription {
	return &Subscription{
		symbol:   symbol,
		interval: interval,
		conn:     conn,
		updates:  make(chan model.CandleUpdate, 64),
	}
}

// Symbol returns the subscribed symbol.
func (s *Subscription) Symbol() string { return s.symbol }

// Interval returns the subscribed interval.
func (s *Subscription) Interval() string { return s.interval }

// Updates returns the typed update channel. It is closed on teardown; callers
// should range over it.
func (s *Subscription) Updates() <-chan model.CandleUpdate { return s.updates }

// Close tears the subscription down: a best-effort close frame, then the
// transport. The read loop exits and closes Updates(). Safe to call more
// than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
}

// closed reports whether Close initiated the teardown (as opposed to the
// transport failing on its own).
func (s *Subscription) closed() bool { return s.closing.Load() }

// Package pricebus publishes live price updates to Redis so other dashboard
// processes (alert evaluators, additional gateway instances) can follow the
// charts without their own exchange subscriptions.
package pricebus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

const latestTTL = 30 * time.Minute

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Publisher writes price updates to Redis. It satisfies the controller's
// notifier contract, so it plugs straight into the live update path.
type Publisher struct {
	client *goredis.Client
	log    *slog.Logger
}

// New connects and pings Redis.
func New(cfg Config, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("price bus connected", "addr", cfg.Addr)
	return &Publisher{client: client, log: log}, nil
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// LiveCandle publishes one bar revision: SET of the latest payload with a TTL
// plus a PUBLISH for live subscribers, pipelined into one roundtrip.
func (p *Publisher) LiveCandle(symbol, interval string, u model.CandleUpdate, legend string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := string(u.Candle.JSON())
	latestKey := "price:latest:" + symbol
	channel := "pub:price:" + symbol

	pipe := p.client.Pipeline()
	pipe.Set(ctx, latestKey, payload, latestTTL)
	pipe.Publish(ctx, channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		p.log.Warn("price bus publish failed", "symbol", symbol, "err", err)
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

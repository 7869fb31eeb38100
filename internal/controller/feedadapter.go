package controller

import (
	"context"

	"github.com/SonBongKyun/Ryzm-sub000/internal/feed"
	"github.com/SonBongKyun/Ryzm-sub000/internal/model"
)

// BinanceFeed adapts feed.Client to the DataFeed interface.
type BinanceFeed struct {
	Client *feed.Client
}

func (b BinanceFeed) LoadHistory(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	return b.Client.LoadHistory(ctx, symbol, interval, limit)
}

func (b BinanceFeed) OpenLiveStream(ctx context.Context, symbol, interval string) (LiveStream, error) {
	sub, err := b.Client.OpenLiveStream(ctx, symbol, interval)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

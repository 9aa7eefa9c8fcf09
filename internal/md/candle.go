package md

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrTransport = errors.New("market data transport failure")
	ErrParse     = errors.New("market data parse failure")
)

// Candle is one kline as returned by the venue. Only Close is parsed into a
// number; the remaining fields keep the venue's raw text.
type Candle struct {
	OpenTime  int64
	Open      string
	High      string
	Low       string
	Close     float64
	Volume    string
	CloseTime int64
	Extra     []json.RawMessage
}

func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// Series is a chronological run of candles, oldest first.
type Series []Candle

func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

func (s Series) Empty() bool {
	return len(s) == 0
}

// Fetcher returns at most limit candles for symbol/interval. An empty Series
// with a nil error means the venue had no data.
type Fetcher interface {
	Fetch(ctx context.Context, symbol, interval string, limit int) (Series, error)
}

func tail(series Series, limit int) Series {
	if limit > 0 && len(series) > limit {
		return series[len(series)-limit:]
	}
	return series
}

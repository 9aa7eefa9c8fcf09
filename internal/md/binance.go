package md

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const klinesPath = "/api/v3/klines"

var maxResponseBytes int64 = 16 << 20

type BinanceClient struct {
	baseURL string
	client  *http.Client
}

// NewBinanceClient expects an http.Client with a timeout; the polling loop
// relies on it to never block forever.
func NewBinanceClient(baseURL string, client *http.Client) *BinanceClient {
	return &BinanceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (c *BinanceClient) Fetch(ctx context.Context, symbol, interval string, limit int) (Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + klinesPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get klines: %v", ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read klines: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: klines status %d: %s", ErrTransport, resp.StatusCode, string(body))
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode klines: %v", ErrParse, err)
	}

	series, err := parseKlines(raw)
	if err != nil {
		return nil, err
	}
	series = tail(series, limit)
	slog.Debug("klines fetched", "symbol", symbol, "interval", interval, "count", len(series))
	return series, nil
}

// parseKlines maps the positional kline layout:
//
//	[0] open time  [1] open  [2] high  [3] low  [4] close  [5] volume  [6] close time  [7..] aggregates
func parseKlines(raw [][]json.RawMessage) (Series, error) {
	series := make(Series, 0, len(raw))
	for i, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: kline[%d] has %d fields, want at least 6", ErrParse, i, len(row))
		}
		closePrice, err := parseNumber(row[4])
		if err != nil {
			return nil, fmt.Errorf("%w: kline[%d] close: %v", ErrParse, i, err)
		}
		candle := Candle{
			OpenTime: parseMillis(row[0]),
			Open:     rawText(row[1]),
			High:     rawText(row[2]),
			Low:      rawText(row[3]),
			Close:    closePrice,
			Volume:   rawText(row[5]),
		}
		if len(row) > 6 {
			candle.CloseTime = parseMillis(row[6])
		}
		if len(row) > 7 {
			candle.Extra = row[7:]
		}
		series = append(series, candle)
	}
	return series, nil
}

// parseNumber accepts both "123.45" and 123.45.
func parseNumber(raw json.RawMessage) (float64, error) {
	var f float64
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	} else if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("not a number: %s", string(raw))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %s", string(raw))
	}
	return f, nil
}

func parseMillis(raw json.RawMessage) int64 {
	var v int64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	f, err := parseNumber(raw)
	if err != nil {
		return 0
	}
	return int64(f)
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}

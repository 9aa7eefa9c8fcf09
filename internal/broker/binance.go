package broker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	orderPath    = "/api/v3/order"
	apiKeyHeader = "X-MBX-APIKEY"
)

var maxResponseBytes int64 = 1 << 20

type BinanceClient struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
}

func NewBinanceClient(apiKey, apiSecret, baseURL string, client *http.Client) *BinanceClient {
	return &BinanceClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
	}
}

func (c *BinanceClient) orderParams(order Order) Params {
	ts := order.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	orderType := order.Type
	if orderType == "" {
		orderType = TypeMarket
	}
	return Params{}.
		Add("symbol", order.Symbol).
		Add("side", string(order.Side)).
		Add("type", orderType).
		Add("quantity", FormatQuantity(order.Quantity)).
		Add("timestamp", strconv.FormatInt(ts.UnixMilli(), 10))
}

func (c *BinanceClient) Submit(ctx context.Context, order Order) (Ack, error) {
	query := c.orderParams(order).Signed(c.apiSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+orderPath+"?"+query, nil)
	if err != nil {
		return Ack{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Error("place order failed", "side", order.Side, "symbol", order.Symbol, "qty", order.Quantity, "error", err)
		return Ack{}, fmt.Errorf("%w: post order: %v", ErrTransport, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: read order response: %v", ErrTransport, err)
	}

	ack := Ack{StatusCode: resp.StatusCode, Payload: payload}
	slog.Info("place order response", "side", order.Side, "symbol", order.Symbol, "qty", order.Quantity, "status", resp.StatusCode, "accepted", ack.Accepted())
	return ack, nil
}

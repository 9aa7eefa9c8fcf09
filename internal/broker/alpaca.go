package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"swingbot/internal/strategy"
)

// AlpacaClient submits market orders through Alpaca's trading API.
type AlpacaClient struct {
	client      *alpaca.Client
	timeInForce alpaca.TimeInForce
}

func NewAlpacaClient(apiKey, apiSecret, baseURL, timeInForce string, httpClient *http.Client) (*AlpacaClient, error) {
	tif, err := parseTimeInForce(timeInForce)
	if err != nil {
		return nil, err
	}
	opts := alpaca.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		BaseURL:    baseURL,
		HTTPClient: httpClient,
	}
	return &AlpacaClient{client: alpaca.NewClient(opts), timeInForce: tif}, nil
}

func (c *AlpacaClient) Submit(ctx context.Context, order Order) (Ack, error) {
	if err := ctx.Err(); err != nil {
		return Ack{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	qty := decimal.NewFromFloat(order.Quantity)
	side := alpaca.Buy
	if order.Side == strategy.Sell {
		side = alpaca.Sell
	}

	placed, err := c.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:      order.Symbol,
		Qty:         &qty,
		Side:        side,
		Type:        alpaca.Market,
		TimeInForce: c.timeInForce,
	})
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) {
			payload, _ := json.Marshal(map[string]any{"status": apiErr.StatusCode, "message": apiErr.Message})
			slog.Info("place order rejected", "side", side, "symbol", order.Symbol, "qty", qty.String(), "status", apiErr.StatusCode)
			return Ack{StatusCode: apiErr.StatusCode, Payload: payload}, nil
		}
		slog.Error("place order failed", "side", side, "symbol", order.Symbol, "qty", qty.String(), "error", err)
		return Ack{}, fmt.Errorf("%w: place order: %v", ErrTransport, err)
	}

	payload, err := json.Marshal(placed)
	if err != nil {
		return Ack{}, fmt.Errorf("encode order response: %w", err)
	}
	slog.Info("place order success", "order_id", placed.ID, "side", side, "symbol", order.Symbol, "qty", qty.String(), "status", placed.Status)
	return Ack{StatusCode: http.StatusOK, Payload: payload}, nil
}

func parseTimeInForce(value string) (alpaca.TimeInForce, error) {
	switch value {
	case "", "gtc":
		return alpaca.GTC, nil
	case "day":
		return alpaca.Day, nil
	case "ioc":
		return alpaca.IOC, nil
	default:
		return "", fmt.Errorf("unsupported time in force: %s", value)
	}
}

package broker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"swingbot/internal/strategy"
)

var ErrTransport = errors.New("order transport failure")

const TypeMarket = "MARKET"

type Order struct {
	Symbol    string
	Side      strategy.Action
	Type      string
	Quantity  float64
	Timestamp time.Time
}

func NewMarketOrder(symbol string, side strategy.Action, qty float64, now time.Time) Order {
	return Order{
		Symbol:    symbol,
		Side:      side,
		Type:      TypeMarket,
		Quantity:  qty,
		Timestamp: now,
	}
}

// Ack is the venue's raw answer to a submission. A non-2xx status is a venue
// rejection and is reported as-is rather than as an error.
type Ack struct {
	StatusCode int
	Payload    []byte
}

func (a Ack) Accepted() bool {
	return a.StatusCode >= 200 && a.StatusCode <= 299
}

func (a Ack) String() string {
	return string(a.Payload)
}

// Submitter sends one order and returns whatever the venue answered.
// Implementations never retry.
type Submitter interface {
	Submit(ctx context.Context, order Order) (Ack, error)
}

// FormatQuantity renders qty without exponent notation.
func FormatQuantity(qty float64) string {
	return decimal.NewFromFloat(qty).String()
}

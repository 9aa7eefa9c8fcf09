package md

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaBars serves the Fetcher contract from Alpaca's historical bars API.
type AlpacaBars struct {
	client *marketdata.Client
	feed   marketdata.Feed
}

func NewAlpacaBars(apiKey, apiSecret, feed string, httpClient *http.Client) *AlpacaBars {
	return &AlpacaBars{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:     apiKey,
			APISecret:  apiSecret,
			HTTPClient: httpClient,
		}),
		feed: parseFeed(feed),
	}
}

func (a *AlpacaBars) Fetch(ctx context.Context, symbol, interval string, limit int) (Series, error) {
	timeframe, step, err := parseTimeFrame(interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	// Markets close on weekends and overnight, so look back well past limit bars.
	end := time.Now().UTC()
	start := end.Add(-3 * time.Duration(limit) * step)
	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: timeframe,
		Start:     start,
		End:       end,
		Feed:      a.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get bars: %v", ErrTransport, err)
	}

	series := make(Series, 0, len(bars))
	for _, bar := range bars {
		series = append(series, Candle{
			OpenTime:  bar.Timestamp.UnixMilli(),
			Open:      strconv.FormatFloat(bar.Open, 'f', -1, 64),
			High:      strconv.FormatFloat(bar.High, 'f', -1, 64),
			Low:       strconv.FormatFloat(bar.Low, 'f', -1, 64),
			Close:     bar.Close,
			Volume:    fmt.Sprint(bar.Volume),
			CloseTime: bar.Timestamp.Add(step).UnixMilli() - 1,
		})
	}
	return tail(series, limit), nil
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}

// parseTimeFrame maps exchange-style intervals ("15m", "1h", "1d") onto
// Alpaca timeframes.
func parseTimeFrame(interval string) (marketdata.TimeFrame, time.Duration, error) {
	if len(interval) < 2 {
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported interval %q", interval)
	}
	amount, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || amount <= 0 {
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported interval %q", interval)
	}
	switch interval[len(interval)-1:] {
	case "m":
		return marketdata.NewTimeFrame(amount, marketdata.Min), time.Duration(amount) * time.Minute, nil
	case "h", "H":
		return marketdata.NewTimeFrame(amount, marketdata.Hour), time.Duration(amount) * time.Hour, nil
	case "d", "D":
		return marketdata.NewTimeFrame(amount, marketdata.Day), time.Duration(amount) * 24 * time.Hour, nil
	default:
		return marketdata.TimeFrame{}, 0, fmt.Errorf("unsupported interval %q", interval)
	}
}

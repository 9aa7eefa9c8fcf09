package md

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != klinesPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBinanceFetchParsesClose(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[
  [1700000000000,"100.0","101.0","99.0","100.5","12.3",1700003599999,"1234.5",42,"6.1","612.2","0"],
  [1700003600000,"100.5","102.0","100.1","101.75","8.0",1700007199999,"808.1",30,"4.0","404.0","0"]
]`))
	}))
	defer server.Close()

	client := NewBinanceClient(server.URL+"/", &http.Client{Timeout: time.Second})
	series, err := client.Fetch(context.Background(), "BTCUSDT", "1h", 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "interval=1h&limit=500&symbol=BTCUSDT" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(series))
	}
	if series[1].Close != 101.75 {
		t.Fatalf("expected close 101.75, got %v", series[1].Close)
	}
	if series[0].Open != "100.0" || series[0].Volume != "12.3" {
		t.Fatalf("expected raw fields preserved, got open=%q volume=%q", series[0].Open, series[0].Volume)
	}
	if series[0].OpenTime != 1700000000000 || series[0].CloseTime != 1700003599999 {
		t.Fatalf("unexpected times %d %d", series[0].OpenTime, series[0].CloseTime)
	}
	if len(series[0].Extra) != 5 {
		t.Fatalf("expected 5 aggregate fields, got %d", len(series[0].Extra))
	}
}

func TestBinanceFetchAcceptsNumericClose(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `[[1,"1","1","1",42.5,"1"]]`)
	series, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1m", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series[0].Close != 42.5 {
		t.Fatalf("expected 42.5, got %v", series[0].Close)
	}
}

func TestBinanceFetchEmptyIsNotAnError(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `[]`)
	series, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1m", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series == nil || !series.Empty() {
		t.Fatalf("expected explicit empty series, got %v", series)
	}
}

func TestBinanceFetchKeepsMostRecent(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `[[1,"","","","1",""],[2,"","","","2",""],[3,"","","","3",""]]`)
	series, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1m", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 2 || series[0].Close != 2 || series[1].Close != 3 {
		t.Fatalf("expected last two candles, got %+v", series)
	}
}

func TestBinanceFetchParseErrors(t *testing.T) {
	cases := map[string]string{
		"object body":     `{"code":-1121,"msg":"Invalid symbol."}`,
		"short row":       `[[1,"1","1","1","1"]]`,
		"non-numeric":     `[[1,"1","1","1","abc","1"]]`,
		"not finite":      `[[1,"1","1","1","NaN","1"]]`,
		"null close":      `[[1,"1","1","1",null,"1"]]`,
		"truncated array": `[[1,"1"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := newTestServer(t, http.StatusOK, body)
			_, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1m", 10)
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected parse error, got %v", err)
			}
		})
	}
}

func TestBinanceFetchStatusIsTransportError(t *testing.T) {
	server := newTestServer(t, http.StatusTooManyRequests, `{"code":-1003,"msg":"Too many requests"}`)
	_, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1m", 10)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestBinanceFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewBinanceClient(server.URL, &http.Client{Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background(), "X", "1m", 10)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error on timeout, got %v", err)
	}
}

func TestBinanceFetchBoundsResponseBody(t *testing.T) {
	previous := maxResponseBytes
	maxResponseBytes = 64
	t.Cleanup(func() { maxResponseBytes = previous })

	server := newTestServer(t, http.StatusOK, `[
  [1700000000000,"100.0","101.0","99.0","100.5","12.3",1700003599999,"1234.5",42,"6.1","612.2","0"]
]`)
	_, err := NewBinanceClient(server.URL, server.Client()).Fetch(context.Background(), "X", "1h", 10)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected truncated body to fail parsing, got %v", err)
	}
}

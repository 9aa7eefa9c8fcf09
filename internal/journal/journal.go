package journal

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Result string

const (
	ResultSubmitted  Result = "order_submitted"
	ResultRejected   Result = "order_rejected"
	ResultDryRun     Result = "dry_run"
	ResultOrderError Result = "order_failed"
	ResultSizing     Result = "sizing_failed"
	ResultNoData     Result = "no_data"
	ResultFailed     Result = "iteration_failed"
)

// Decision is one journal record: a signal and what happened to it, or an
// iteration that produced no signal to act on.
type Decision struct {
	RunID      string    `json:"run_id"`
	Iteration  uint64    `json:"iteration"`
	Timestamp  time.Time `json:"timestamp"`
	BarTime    time.Time `json:"bar_time"`
	Symbol     string    `json:"symbol"`
	Close      float64   `json:"close"`
	ShortAvg   float64   `json:"short_avg,omitempty"`
	LongAvg    float64   `json:"long_avg,omitempty"`
	Transition int       `json:"transition,omitempty"`
	Side       string    `json:"side,omitempty"`
	Quantity   float64   `json:"quantity,omitempty"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	Result     Result    `json:"result"`
	StatusCode int       `json:"status_code,omitempty"`
	Response   string    `json:"response,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func (d Decision) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

type Sink interface {
	Append(ctx context.Context, decision Decision) error
	Close() error
}

// Multi fans a decision out to every sink; one failing sink does not stop the others.
type Multi []Sink

func (m Multi) Append(ctx context.Context, decision Decision) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Append(ctx, decision); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, sink := range m {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Discard struct{}

func (Discard) Append(context.Context, Decision) error { return nil }

func (Discard) Close() error { return nil }

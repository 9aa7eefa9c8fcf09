package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"swingbot/internal/broker"
	"swingbot/internal/config"
	"swingbot/internal/journal"
	"swingbot/internal/md"
	"swingbot/internal/metrics"
	"swingbot/internal/risk"
	"swingbot/internal/state"
	"swingbot/internal/strategy"
)

const journalTimeout = 2 * time.Second

var ErrPanic = errors.New("iteration panicked")

type Status string

const (
	StatusTraded    Status = "traded"
	StatusNoData    Status = "no_data"
	StatusNoSignals Status = "no_signals"
	StatusFailed    Status = "failed"
)

// OrderOutcome records one signal's order and the venue's answer. Ack is
// empty for dry runs.
type OrderOutcome struct {
	Signal   strategy.SignalPoint
	Order    broker.Order
	StopLoss float64
	Ack      broker.Ack
	DryRun   bool
}

// IterationResult is the typed outcome of one fetch-signal-order pass.
type IterationResult struct {
	Iteration uint64
	Started   time.Time
	Duration  time.Duration
	Status    Status
	Candles   int
	Signals   int
	Orders    []OrderOutcome
	Err       error
}

func (r IterationResult) Failed() bool {
	return r.Status == StatusFailed
}

type Engine struct {
	cfg       config.Config
	fetcher   md.Fetcher
	crossover strategy.Crossover
	sizer     risk.Sizer
	submitter broker.Submitter
	journal   journal.Sink
	state     *state.Store
	policy    Policy
	runID     string
	now       func() time.Time
	sleep     func(ctx context.Context, delay time.Duration) error
	iteration uint64
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithSleeper(sleep func(ctx context.Context, delay time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

func WithPolicy(policy Policy) Option {
	return func(e *Engine) { e.policy = policy }
}

func New(cfg config.Config, fetcher md.Fetcher, submitter broker.Submitter, sink journal.Sink, store *state.Store, runID string, opts ...Option) *Engine {
	var policy Policy = FixedDelay(cfg.PollInterval)
	if cfg.BackoffMax > 0 {
		policy = NewBackoff(policy, cfg.BackoffMax)
	}
	if sink == nil {
		sink = journal.Discard{}
	}
	if store == nil {
		store = state.NewStore(runID, cfg.Symbol, time.Now().UTC())
	}
	e := &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		crossover: strategy.NewCrossover(cfg.ShortWindow, cfg.LongWindow),
		sizer:     risk.NewSizer(cfg.Equity, cfg.RiskPerTrade, cfg.StopPct),
		submitter: submitter,
		journal:   sink,
		state:     store,
		policy:    policy,
		runID:     runID,
		now:       func() time.Time { return time.Now().UTC() },
		sleep:     waitFor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run repeats RunOnce forever, sleeping between passes. A failed pass never
// stops the loop; only ctx cancellation does.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine running", "run_id", e.runID, "symbol", e.cfg.Symbol, "timeframe", e.cfg.Timeframe, "dry_run", e.cfg.DryRun)
	for {
		e.state.SetPhase(state.PhaseProcessing)
		result := e.RunOnce(ctx)
		e.state.SetPhase(state.PhaseRunning)
		e.record(result)

		delay := e.policy.Next(result)
		e.state.SetNextRun(e.now().Add(delay))
		if err := e.sleep(ctx, delay); err != nil {
			slog.Info("engine stopped", "run_id", e.runID, "iterations", e.iteration, "reason", err)
			return err
		}
	}
}

// RunOnce performs a single fetch-signal-order pass. It never panics on venue
// errors; every failure comes back in the result.
func (e *Engine) RunOnce(ctx context.Context) (result IterationResult) {
	e.iteration++
	result = IterationResult{Iteration: e.iteration, Started: e.now()}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("iteration panicked", "iteration", result.Iteration, "panic", r)
			e.fail(ctx, &result, fmt.Errorf("%w: %v", ErrPanic, r))
		}
		result.Duration = e.now().Sub(result.Started)
	}()

	series, err := e.fetcher.Fetch(ctx, e.cfg.Symbol, e.cfg.Timeframe, e.cfg.Limit)
	if err != nil {
		e.fail(ctx, &result, fmt.Errorf("fetch market data: %w", err))
		return result
	}
	result.Candles = len(series)
	if series.Empty() {
		slog.Info("no new market data", "symbol", e.cfg.Symbol, "timeframe", e.cfg.Timeframe)
		e.append(ctx, journal.Decision{
			Iteration: result.Iteration,
			Timestamp: e.now(),
			Symbol:    e.cfg.Symbol,
			Result:    journal.ResultNoData,
		})
		result.Status = StatusNoData
		return result
	}

	signals := e.crossover.Signals(series)
	result.Signals = len(signals)
	if len(signals) == 0 {
		last := series[len(series)-1]
		slog.Debug("no crossover", "symbol", e.cfg.Symbol, "candles", len(series), "close", last.Close)
		result.Status = StatusNoSignals
		return result
	}

	for _, signal := range signals {
		metrics.SignalsTotal.WithLabelValues(string(signal.Side())).Inc()
		outcome, err := e.execute(ctx, result.Iteration, signal)
		if err != nil {
			e.fail(ctx, &result, err)
			return result
		}
		result.Orders = append(result.Orders, outcome)
	}
	result.Status = StatusTraded
	return result
}

func (e *Engine) execute(ctx context.Context, iteration uint64, signal strategy.SignalPoint) (OrderOutcome, error) {
	decision := journal.Decision{
		Iteration:  iteration,
		Timestamp:  e.now(),
		BarTime:    signal.Time,
		Symbol:     e.cfg.Symbol,
		Close:      signal.Close,
		ShortAvg:   signal.ShortAvg,
		LongAvg:    signal.LongAvg,
		Transition: signal.Transition,
		Side:       string(signal.Side()),
	}

	qty, stop, err := e.sizer.SizeAt(signal.Close)
	decision.StopLoss = stop
	if err != nil {
		decision.Result = journal.ResultSizing
		decision.Error = err.Error()
		e.append(ctx, decision)
		return OrderOutcome{}, fmt.Errorf("size position at index %d: %w", signal.Index, err)
	}
	decision.Quantity = qty

	order := broker.NewMarketOrder(e.cfg.Symbol, signal.Side(), qty, e.now())
	outcome := OrderOutcome{Signal: signal, Order: order, StopLoss: stop}

	if e.cfg.DryRun {
		outcome.DryRun = true
		decision.Result = journal.ResultDryRun
		e.append(ctx, decision)
		metrics.OrdersTotal.WithLabelValues(string(order.Side), "dry_run").Inc()
		slog.Info("order dry run", "symbol", order.Symbol, "side", order.Side, "qty", qty, "entry", signal.Close, "stop", stop, "bar", signal.Time.Format(time.RFC3339))
		return outcome, nil
	}

	ack, err := e.submitter.Submit(ctx, order)
	if err != nil {
		decision.Result = journal.ResultOrderError
		decision.Error = err.Error()
		e.append(ctx, decision)
		metrics.OrdersTotal.WithLabelValues(string(order.Side), "error").Inc()
		return OrderOutcome{}, fmt.Errorf("submit %s order: %w", order.Side, err)
	}
	outcome.Ack = ack

	decision.StatusCode = ack.StatusCode
	decision.Response = ack.String()
	decision.Result = journal.ResultSubmitted
	label := "accepted"
	if !ack.Accepted() {
		decision.Result = journal.ResultRejected
		label = "rejected"
	}
	e.append(ctx, decision)
	metrics.OrdersTotal.WithLabelValues(string(order.Side), label).Inc()
	slog.Info("trade response", "symbol", order.Symbol, "side", order.Side, "qty", qty, "entry", signal.Close, "stop", stop, "status", ack.StatusCode, "response", ack.String())
	return outcome, nil
}

func (e *Engine) fail(ctx context.Context, result *IterationResult, err error) {
	result.Status = StatusFailed
	result.Err = err
	e.append(ctx, journal.Decision{
		Iteration: result.Iteration,
		Timestamp: e.now(),
		Symbol:    e.cfg.Symbol,
		Result:    journal.ResultFailed,
		Error:     err.Error(),
	})
}

func (e *Engine) append(ctx context.Context, decision journal.Decision) {
	decision.RunID = e.runID
	ctx, cancel := context.WithTimeout(ctx, journalTimeout)
	defer cancel()
	if err := e.journal.Append(ctx, decision); err != nil {
		slog.Warn("journal append failed", "result", decision.Result, "error", err)
	}
}

func (e *Engine) record(result IterationResult) {
	metrics.IterationsTotal.WithLabelValues(string(result.Status)).Inc()
	metrics.IterationDuration.Observe(result.Duration.Seconds())
	metrics.LastIterationTimestamp.Set(float64(e.now().Unix()))

	submitted := 0
	for _, outcome := range result.Orders {
		if !outcome.DryRun {
			submitted++
		}
	}
	e.state.RecordIteration(e.now(), string(result.Status), result.Err, submitted)

	if result.Err != nil {
		class := Classify(result.Err)
		metrics.FailuresTotal.WithLabelValues(class).Inc()
		slog.Error("iteration failed", "iteration", result.Iteration, "class", class, "error", result.Err)
		return
	}
	slog.Info("iteration complete", "iteration", result.Iteration, "status", result.Status, "candles", result.Candles, "signals", result.Signals, "orders", len(result.Orders), "duration", result.Duration)
}

// Classify buckets an iteration error for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, md.ErrTransport), errors.Is(err, broker.ErrTransport):
		return "transport"
	case errors.Is(err, md.ErrParse):
		return "parse"
	case errors.Is(err, risk.ErrZeroRisk), errors.Is(err, risk.ErrInvalidQuantity):
		return "sizing"
	case errors.Is(err, ErrPanic):
		return "panic"
	default:
		return "other"
	}
}

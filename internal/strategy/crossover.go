package strategy

import (
	"time"

	"swingbot/internal/md"
)

const (
	DefaultShortWindow = 20
	DefaultLongWindow  = 50
)

// SignalPoint is the crossover state at one index of a series.
type SignalPoint struct {
	Index      int
	Time       time.Time
	Close      float64
	ShortAvg   float64
	LongAvg    float64
	Raw        int
	Transition int
}

func (p SignalPoint) Side() Action {
	return SideFor(p.Transition)
}

// Crossover is a dual simple-moving-average engine. It only ever emits long
// (+1) or short (-1) states once warmed up; there is no flat state.
type Crossover struct {
	ShortWindow int
	LongWindow  int
}

func NewCrossover(shortWindow, longWindow int) Crossover {
	if shortWindow <= 0 {
		shortWindow = DefaultShortWindow
	}
	if longWindow <= 0 {
		longWindow = DefaultLongWindow
	}
	return Crossover{ShortWindow: shortWindow, LongWindow: longWindow}
}

// Compute returns one SignalPoint per candle.
func (c Crossover) Compute(series md.Series) []SignalPoint {
	points := make([]SignalPoint, len(series))
	short := newRollingWindow(c.ShortWindow)
	long := newRollingWindow(c.LongWindow)

	for i, candle := range series {
		short.Add(candle.Close)
		long.Add(candle.Close)
		point := SignalPoint{
			Index:    i,
			Time:     candle.Time(),
			Close:    candle.Close,
			ShortAvg: short.Mean(),
			LongAvg:  long.Mean(),
		}

		// Warm-up: no position until the short average has a full window behind it.
		if i >= c.ShortWindow {
			if point.ShortAvg > point.LongAvg {
				point.Raw = 1
			} else {
				// Ties resolve short.
				point.Raw = -1
			}
		}
		if i > 0 {
			point.Transition = point.Raw - points[i-1].Raw
		}
		points[i] = point
	}
	return points
}

// Signals returns the points where the raw state changed, oldest first.
func (c Crossover) Signals(series md.Series) []SignalPoint {
	signals := make([]SignalPoint, 0)
	for _, point := range c.Compute(series) {
		if point.Transition != 0 {
			signals = append(signals, point)
		}
	}
	return signals
}

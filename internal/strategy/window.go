package strategy

// rollingWindow keeps the last size values. Mean averages whatever is
// present, so a partially filled window behaves like min_periods=1.
type rollingWindow struct {
	values []float64
	size   int
	index  int
	filled bool
}

func newRollingWindow(size int) *rollingWindow {
	return &rollingWindow{
		values: make([]float64, size),
		size:   size,
	}
}

func (r *rollingWindow) Add(value float64) {
	r.values[r.index] = value
	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

func (r *rollingWindow) Len() int {
	if r.filled {
		return r.size
	}
	return r.index
}

func (r *rollingWindow) Mean() float64 {
	length := r.Len()
	if length == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range r.values[:length] {
		sum += v
	}
	return sum / float64(length)
}

package strategy

import "testing"

func TestRollingWindowMean(t *testing.T) {
	window := newRollingWindow(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		window.Add(v)
	}
	expected := (3.0 + 4.0 + 5.0) / 3.0
	if got := window.Mean(); got != expected {
		t.Fatalf("expected mean %.2f, got %.2f", expected, got)
	}
}

func TestRollingWindowMeanPartiallyFilled(t *testing.T) {
	window := newRollingWindow(5)
	window.Add(2)
	window.Add(4)
	if window.Len() != 2 {
		t.Fatalf("expected len 2, got %d", window.Len())
	}
	if got := window.Mean(); got != 3 {
		t.Fatalf("expected mean 3, got %v", got)
	}
}

func TestRollingWindowEmpty(t *testing.T) {
	if got := newRollingWindow(4).Mean(); got != 0 {
		t.Fatalf("expected 0 for empty window, got %v", got)
	}
}

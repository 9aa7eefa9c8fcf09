package state

import (
	"errors"
	"testing"
	"time"
)

func TestStoreTracksConsecutiveFailures(t *testing.T) {
	store := NewStore("run", "BTCUSDT", time.Now())
	now := time.Now()

	store.RecordIteration(now, "failed", errors.New("timeout"), 0)
	store.RecordIteration(now, "failed", errors.New("timeout"), 0)
	snapshot := store.Snapshot()
	if snapshot.ConsecutiveFailures != 2 {
		t.Fatalf("expected 2 consecutive failures, got %d", snapshot.ConsecutiveFailures)
	}
	if snapshot.LastError != "timeout" {
		t.Fatalf("expected last error, got %q", snapshot.LastError)
	}

	store.RecordIteration(now, "traded", nil, 3)
	snapshot = store.Snapshot()
	if snapshot.ConsecutiveFailures != 0 || snapshot.LastError != "" {
		t.Fatalf("expected failures reset, got %+v", snapshot)
	}
	if snapshot.Iterations != 3 || snapshot.OrdersSubmitted != 3 {
		t.Fatalf("expected 3 iterations and 3 orders, got %d and %d", snapshot.Iterations, snapshot.OrdersSubmitted)
	}
}

func TestStorePhase(t *testing.T) {
	store := NewStore("run", "BTCUSDT", time.Now())
	if store.Snapshot().Phase != PhaseRunning {
		t.Fatalf("expected running phase on start")
	}
	store.SetPhase(PhaseProcessing)
	if store.Snapshot().Phase != PhaseProcessing {
		t.Fatalf("expected processing phase")
	}
}

package state

import (
	"sync"
	"time"
)

type Phase string

const (
	PhaseRunning    Phase = "running"
	PhaseProcessing Phase = "processing"
)

// Snapshot is the bot's in-memory runtime status. It is never persisted:
// a restart starts from a fresh snapshot and freshly fetched history.
type Snapshot struct {
	RunID               string    `json:"run_id"`
	Symbol              string    `json:"symbol"`
	Phase               Phase     `json:"phase"`
	StartedAt           time.Time `json:"started_at"`
	Iterations          uint64    `json:"iterations"`
	LastIterationAt     time.Time `json:"last_iteration_at"`
	LastStatus          string    `json:"last_status"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	OrdersSubmitted     uint64    `json:"orders_submitted"`
	NextRunAt           time.Time `json:"next_run_at"`
}

type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func NewStore(runID, symbol string, startedAt time.Time) *Store {
	return &Store{
		snapshot: Snapshot{
			RunID:     runID,
			Symbol:    symbol,
			Phase:     PhaseRunning,
			StartedAt: startedAt,
		},
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Store) SetPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = phase
}

func (s *Store) RecordIteration(at time.Time, status string, err error, orders int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Iterations++
	s.snapshot.LastIterationAt = at
	s.snapshot.LastStatus = status
	s.snapshot.OrdersSubmitted += uint64(orders)
	if err != nil {
		s.snapshot.LastError = err.Error()
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = ""
	s.snapshot.ConsecutiveFailures = 0
}

func (s *Store) SetNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.NextRunAt = t
}

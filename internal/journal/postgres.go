package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const createDecisionsTable = `CREATE TABLE IF NOT EXISTS decisions (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	iteration BIGINT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	result TEXT NOT NULL,
	side TEXT,
	quantity DOUBLE PRECISION,
	payload JSONB NOT NULL
)`

const insertDecision = `INSERT INTO decisions (run_id, iteration, recorded_at, symbol, result, side, quantity, payload)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`

// PostgresSink writes one row per decision; the full record goes into payload.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createDecisionsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create decisions table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

func (p *PostgresSink) Append(ctx context.Context, decision Decision) error {
	payload, err := decision.Marshal()
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	_, err = p.db.ExecContext(ctx, insertDecision,
		decision.RunID,
		int64(decision.Iteration),
		decision.Timestamp,
		decision.Symbol,
		string(decision.Result),
		decision.Side,
		decision.Quantity,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (p *PostgresSink) Close() error {
	return p.db.Close()
}

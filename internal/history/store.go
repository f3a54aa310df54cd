// Package history persists completed advisory analyses to PostgreSQL so the
// dashboard can show past runs. The store is optional: the service degrades
// to no history when the database is unreachable.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/narongchai190/soiler/pkg/errors"
	"github.com/narongchai190/soiler/pkg/postgres"
	"github.com/narongchai190/soiler/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_history (
    id          BIGSERIAL PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    location    TEXT NOT NULL,
    crop        TEXT NOT NULL,
    ph          DOUBLE PRECISION NOT NULL,
    nitrogen    DOUBLE PRECISION NOT NULL,
    phosphorus  DOUBLE PRECISION NOT NULL,
    potassium   DOUBLE PRECISION NOT NULL,
    field_rai   DOUBLE PRECISION NOT NULL,
    report      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at
    ON analysis_history (created_at DESC);
`

// Record is one persisted analysis run.
type Record struct {
	ID         int64           `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Location   string          `json:"location"`
	Crop       string          `json:"crop"`
	PH         float64         `json:"ph"`
	Nitrogen   float64         `json:"nitrogen"`
	Phosphorus float64         `json:"phosphorus"`
	Potassium  float64         `json:"potassium"`
	FieldRai   float64         `json:"field_rai"`
	Report     json.RawMessage `json:"report"`
}

// Store reads and writes analysis history through a circuit breaker so a
// failing database cannot stall the advisory pipeline.
type Store struct {
	db      *postgres.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewStore creates the store and ensures the schema exists, retrying
// briefly to ride out database startup.
func NewStore(ctx context.Context, db *postgres.Client) (*Store, error) {
	s := &Store{
		db:      db,
		breaker: resilience.NewCircuitBreaker("history-db", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "history-store"),
	}
	err := resilience.Retry(ctx, "history-schema", resilience.RetryConfig{MaxAttempts: 3}, func() error {
		_, execErr := db.DB.ExecContext(ctx, schema)
		return execErr
	})
	if err != nil {
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return s, nil
}

// saveTimeout caps a history insert so the best-effort save can never hold
// up the analysis response.
const saveTimeout = 3 * time.Second

// Save inserts one analysis record and returns its assigned id.
func (s *Store) Save(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := resilience.WithTimeout(ctx, saveTimeout, "history-save", func(ctx context.Context) error {
		return s.breaker.Execute(func() error {
			return s.db.DB.QueryRowContext(ctx,
				`INSERT INTO analysis_history
				    (location, crop, ph, nitrogen, phosphorus, potassium, field_rai, report)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				 RETURNING id`,
				rec.Location, rec.Crop, rec.PH, rec.Nitrogen, rec.Phosphorus,
				rec.Potassium, rec.FieldRai, []byte(rec.Report),
			).Scan(&id)
		})
	})
	if err != nil {
		return 0, fmt.Errorf("saving analysis record: %w", err)
	}
	s.logger.Debug("analysis saved", "id", id, "crop", rec.Crop)
	return id, nil
}

// Recent returns the latest analyses, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []Record
	err := s.breaker.Execute(func() error {
		rows, err := s.db.DB.QueryContext(ctx,
			`SELECT id, created_at, location, crop, ph, nitrogen, phosphorus,
			        potassium, field_rai, report
			 FROM analysis_history
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		records = records[:0]
		for rows.Next() {
			var rec Record
			if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Location, &rec.Crop,
				&rec.PH, &rec.Nitrogen, &rec.Phosphorus, &rec.Potassium,
				&rec.FieldRai, &rec.Report); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing analysis history: %w", err)
	}
	return records, nil
}

// ByID returns one analysis record, or ErrNotFound.
func (s *Store) ByID(ctx context.Context, id int64) (Record, error) {
	var rec Record
	err := s.breaker.Execute(func() error {
		return s.db.DB.QueryRowContext(ctx,
			`SELECT id, created_at, location, crop, ph, nitrogen, phosphorus,
			        potassium, field_rai, report
			 FROM analysis_history WHERE id = $1`, id,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.Location, &rec.Crop,
			&rec.PH, &rec.Nitrogen, &rec.Phosphorus, &rec.Potassium,
			&rec.FieldRai, &rec.Report)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: analysis %d", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading analysis %d: %w", id, err)
	}
	return rec, nil
}

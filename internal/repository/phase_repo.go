package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wellpump/internal/models"
)

type PhaseSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewPhaseSQLite(db *sql.DB) *PhaseSQLite {
	return &PhaseSQLite{db: db, now: time.Now}
}

// Ensure implementation of PhaseStore interface at compile time.
var _ PhaseStore = (*PhaseSQLite)(nil)

const (
	pumpPhaseRowID = 1

	upsertPhaseSQL = `
		INSERT INTO pump_phase (id, phase, until, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase=excluded.phase,
			until=excluded.until,
			updated_at=excluded.updated_at
	`

	selectPhaseSQL = `SELECT phase, until FROM pump_phase WHERE id=?`
)

// Save overwrites the pump_phase row (id always 1).
func (r *PhaseSQLite) Save(ctx context.Context, s models.PhaseState) error {
	if !s.Phase.Valid() {
		return fmt.Errorf("save phase: unknown phase %q", s.Phase)
	}
	var until sql.NullString
	if s.Until != nil {
		until = sql.NullString{String: EncodeUntil(s.Until), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, upsertPhaseSQL,
		pumpPhaseRowID,
		string(s.Phase),
		until,
		r.now().UTC(),
	); err != nil {
		return fmt.Errorf("save phase: %w", err)
	}
	return nil
}

// Load fetches the pump_phase row; no row means the pump has never run.
func (r *PhaseSQLite) Load(ctx context.Context) (models.PhaseState, error) {
	var (
		phase string
		until sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectPhaseSQL, pumpPhaseRowID).Scan(&phase, &until)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.IdlePhase(), nil
		}
		return models.PhaseState{}, fmt.Errorf("select phase: %w", err)
	}

	st, err := DecodePhase(phase, until.String)
	if err != nil {
		return models.PhaseState{}, &PersistenceError{Store: "phase", Err: err}
	}
	return st, nil
}

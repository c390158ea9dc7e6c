package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wellpump/internal/models"
)

// DefaultSessionTTL is the fixed lifetime given to every cached platform session.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore caches the platform bearer credential between runs.
type SessionStore interface {
	// Load returns the cached session if it is still usable. Missing, corrupt
	// or unreadable data is reported as absent.
	Load(ctx context.Context) (models.Session, bool)
	// Save overwrites the cached session, expiring ttl after now.
	Save(ctx context.Context, token string) error
}

// PhaseStore persists the pump timer contract.
type PhaseStore interface {
	// Load returns models.IdlePhase() when nothing is persisted and a
	// *PersistenceError when the record cannot be decoded.
	Load(ctx context.Context) (models.PhaseState, error)
	Save(ctx context.Context, s models.PhaseState) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.PumpEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.PumpEvent, error)
}

type Repository struct {
	Sessions  SessionStore
	Phases    PhaseStore
	EventRepo EventRepo
}

// NewRepository keeps everything in the SQLite database.
func NewRepository(db *sql.DB, sessionTTL time.Duration) *Repository {
	return &Repository{
		Sessions:  NewSessionSQLite(db, sessionTTL),
		Phases:    NewPhaseSQLite(db),
		EventRepo: NewEventSQLite(db),
	}
}

// PersistenceError reports a persisted record that exists but cannot be used.
type PersistenceError struct {
	Store string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s store: %v", e.Store, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DecodePhase validates a raw phase record. until is an RFC 3339 timestamp or empty.
func DecodePhase(phase, until string) (models.PhaseState, error) {
	p := models.Phase(phase)
	if !p.Valid() {
		return models.PhaseState{}, fmt.Errorf("unknown phase %q", phase)
	}
	st := models.PhaseState{Phase: p}
	if until == "" {
		return st, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, until)
	if err != nil {
		return models.PhaseState{}, fmt.Errorf("parse until %q: %w", until, err)
	}
	st.Until = &ts
	return st, nil
}

// EncodeUntil formats the optional deadline for storage; nil becomes "".
func EncodeUntil(until *time.Time) string {
	if until == nil {
		return ""
	}
	return until.Format(time.RFC3339Nano)
}

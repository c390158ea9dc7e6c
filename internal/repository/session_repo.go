package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wellpump/internal/models"
)

type SessionSQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessionSQLite(db *sql.DB, ttl time.Duration) *SessionSQLite {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionSQLite{db: db, ttl: ttl, now: time.Now}
}

// Ensure implementation of SessionStore interface at compile time.
var _ SessionStore = (*SessionSQLite)(nil)

const (
	platformSessionRowID = 1

	upsertSessionSQL = `
		INSERT INTO platform_session (id, token, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token=excluded.token,
			expires_at=excluded.expires_at
	`

	selectSessionSQL = `SELECT token, expires_at FROM platform_session WHERE id=?`
)

// Load returns the cached session. Any read or decode problem means "log in again".
func (r *SessionSQLite) Load(ctx context.Context) (models.Session, bool) {
	var token, expiresAt string
	if err := r.db.QueryRowContext(ctx, selectSessionSQL, platformSessionRowID).Scan(&token, &expiresAt); err != nil {
		return models.Session{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil {
		return models.Session{}, false
	}
	s := models.Session{Token: token, ExpiresAt: ts}
	if !s.Usable(r.now()) {
		return models.Session{}, false
	}
	return s, true
}

// Save stores token with a fresh expiry of ttl from now.
func (r *SessionSQLite) Save(ctx context.Context, token string) error {
	expiresAt := r.now().Add(r.ttl).UTC()
	if _, err := r.db.ExecContext(ctx, upsertSessionSQL,
		platformSessionRowID,
		token,
		expiresAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

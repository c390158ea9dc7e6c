package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"wellpump/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return db, mock
}

type sqlmockArgumentFunc func(v driver.Value) bool

func (f sqlmockArgumentFunc) Match(v driver.Value) bool { return f(v) }

func TestPhaseSQLite_Save(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	until := time.Date(2025, 6, 2, 12, 3, 0, 0, time.FixedZone("CEST", 2*3600))

	tests := []struct {
		name      string
		state     models.PhaseState
		wantUntil driver.Value
		execErr   error
		wantErr   bool
	}{
		{
			name:      "on with deadline",
			state:     models.PhaseState{Phase: models.PhaseOn, Until: &until},
			wantUntil: "2025-06-02T12:03:00+02:00",
		},
		{
			name:      "idle writes NULL",
			state:     models.IdlePhase(),
			wantUntil: nil,
		},
		{
			name:      "exec error",
			state:     models.IdlePhase(),
			wantUntil: nil,
			execErr:   errors.New("disk full"),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPhaseSQLite(db)
			repo.now = func() time.Time { return now }

			exp := mock.ExpectExec(regexp.QuoteMeta(upsertPhaseSQL)).
				WithArgs(pumpPhaseRowID, string(tt.state.Phase), tt.wantUntil, now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			err := repo.Save(context.Background(), tt.state)
			if tt.wantErr != (err != nil) {
				t.Fatalf("Save() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPhaseSQLite_Load(t *testing.T) {
	tests := []struct {
		name        string
		rows        *sqlmock.Rows
		queryErr    error
		wantPhase   models.Phase
		wantUntil   string
		wantPersist bool
		wantErr     bool
	}{
		{
			name:      "no row is idle",
			queryErr:  sql.ErrNoRows,
			wantPhase: models.PhaseOff,
		},
		{
			name:      "cooldown",
			rows:      sqlmock.NewRows([]string{"phase", "until"}).AddRow("off", "2025-06-02T12:29:00+02:00"),
			wantPhase: models.PhaseOff,
			wantUntil: "2025-06-02T12:29:00+02:00",
		},
		{
			name:      "off without deadline",
			rows:      sqlmock.NewRows([]string{"phase", "until"}).AddRow("off", nil),
			wantPhase: models.PhaseOff,
		},
		{
			name:        "unknown phase",
			rows:        sqlmock.NewRows([]string{"phase", "until"}).AddRow("spinning", nil),
			wantErr:     true,
			wantPersist: true,
		},
		{
			name:        "bad timestamp",
			rows:        sqlmock.NewRows([]string{"phase", "until"}).AddRow("on", "12:03"),
			wantErr:     true,
			wantPersist: true,
		},
		{
			name:     "query error",
			queryErr: errors.New("database is locked"),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPhaseSQLite(db)

			exp := mock.ExpectQuery(regexp.QuoteMeta(selectPhaseSQL)).WithArgs(pumpPhaseRowID)
			if tt.queryErr != nil {
				exp.WillReturnError(tt.queryErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			st, err := repo.Load(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", st)
				}
				var pe *PersistenceError
				if errors.As(err, &pe) != tt.wantPersist {
					t.Fatalf("PersistenceError = %v, want %v (err %v)", !tt.wantPersist, tt.wantPersist, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if st.Phase != tt.wantPhase {
				t.Fatalf("phase = %q, want %q", st.Phase, tt.wantPhase)
			}
			if got := EncodeUntil(st.Until); got != tt.wantUntil {
				t.Fatalf("until = %q, want %q", got, tt.wantUntil)
			}
		})
	}
}

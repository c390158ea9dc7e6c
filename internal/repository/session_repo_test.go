package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSessionSQLite_SaveUsesFixedTTL(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	repo := NewSessionSQLite(db, 0)
	repo.now = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta(upsertSessionSQL)).
		WithArgs(platformSessionRowID, "jwt-token", "2025-06-03T10:00:00Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), "jwt-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestSessionSQLite_Load(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		queryErr error
		wantOK   bool
	}{
		{
			name:   "valid",
			rows:   sqlmock.NewRows([]string{"token", "expires_at"}).AddRow("t", "2025-06-02T10:00:01Z"),
			wantOK: true,
		},
		{
			name: "expired",
			rows: sqlmock.NewRows([]string{"token", "expires_at"}).AddRow("t", "2025-06-02T10:00:00Z"),
		},
		{
			name: "corrupt timestamp",
			rows: sqlmock.NewRows([]string{"token", "expires_at"}).AddRow("t", "soon"),
		},
		{
			name:     "query error",
			queryErr: errors.New("no such table: platform_session"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewSessionSQLite(db, time.Hour)
			repo.now = func() time.Time { return now }

			exp := mock.ExpectQuery(regexp.QuoteMeta(selectSessionSQL)).WithArgs(platformSessionRowID)
			if tt.queryErr != nil {
				exp.WillReturnError(tt.queryErr)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			s, ok := repo.Load(context.Background())
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && s.Token != "t" {
				t.Fatalf("token = %q", s.Token)
			}
		})
	}
}

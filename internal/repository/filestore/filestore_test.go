package filestore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"wellpump/internal/models"
	"wellpump/internal/repository"

	"github.com/spf13/afero"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSessionFile_SaveThenLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	s := NewSessionFile(fs, "/state/session.json", 0)
	s.now = fixedClock(now)

	if err := s.Save(context.Background(), "tok-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := s.Load(context.Background())
	if !ok {
		t.Fatalf("expected cached session")
	}
	if got.Token != "tok-1" {
		t.Fatalf("token = %q", got.Token)
	}
	if want := now.Add(24 * time.Hour); !got.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", got.ExpiresAt, want)
	}

	b, _ := afero.ReadFile(fs, "/state/session.json")
	if !strings.Contains(string(b), `"expiresAt"`) || !strings.Contains(string(b), `"token":"tok-1"`) {
		t.Fatalf("unexpected document: %s", b)
	}
}

func TestSessionFile_LoadAbsent(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		doc  string
	}{
		{"missing file", ""},
		{"corrupt json", `{"token":`},
		{"expired", `{"token":"old","expiresAt":"2025-06-02T11:59:59Z"}`},
		{"expires exactly now", `{"token":"old","expiresAt":"2025-06-02T12:00:00Z"}`},
		{"empty token", `{"token":"","expiresAt":"2025-06-03T12:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tc.doc != "" {
				if err := afero.WriteFile(fs, "/s.json", []byte(tc.doc), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			s := NewSessionFile(fs, "/s.json", time.Hour)
			s.now = fixedClock(now)
			if _, ok := s.Load(context.Background()); ok {
				t.Fatalf("expected absent session")
			}
		})
	}
}

func TestPhaseFile_MissingIsIdle(t *testing.T) {
	p := NewPhaseFile(afero.NewMemMapFs(), "/phase.json")
	st, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Phase != models.PhaseOff || st.Until != nil {
		t.Fatalf("expected {off, nil}, got %+v", st)
	}
}

func TestPhaseFile_RoundTripKeepsOffset(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := NewPhaseFile(fs, "/data/phase.json")

	loc := time.FixedZone("CET", 3600)
	until := time.Date(2025, 6, 2, 12, 3, 0, 0, loc)
	if err := p.Save(context.Background(), models.PhaseState{Phase: models.PhaseOn, Until: &until}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, _ := afero.ReadFile(fs, "/data/phase.json")
	if string(b) != `{"phase":"on","until":"2025-06-02T12:03:00+01:00"}` {
		t.Fatalf("unexpected document: %s", b)
	}

	st, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st.Phase != models.PhaseOn || st.Until == nil || !st.Until.Equal(until) {
		t.Fatalf("unexpected state: %+v", st)
	}

	if err := p.Save(context.Background(), models.IdlePhase()); err != nil {
		t.Fatalf("Save idle: %v", err)
	}
	b, _ = afero.ReadFile(fs, "/data/phase.json")
	if string(b) != `{"phase":"off","until":null}` {
		t.Fatalf("unexpected idle document: %s", b)
	}
}

func TestPhaseFile_CorruptIsSurfaced(t *testing.T) {
	docs := map[string]string{
		"not json":      `phase=on`,
		"unknown phase": `{"phase":"maybe","until":null}`,
		"bad until":     `{"phase":"on","until":"tomorrow"}`,
		"empty until":   `{"phase":"off","until":""}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			_ = afero.WriteFile(fs, "/phase.json", []byte(doc), 0o600)
			_, err := NewPhaseFile(fs, "/phase.json").Load(context.Background())
			var pe *repository.PersistenceError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PersistenceError, got %v", err)
			}
		})
	}
}

func TestPhaseFile_SaveRejectsUnknownPhase(t *testing.T) {
	p := NewPhaseFile(afero.NewMemMapFs(), "/phase.json")
	if err := p.Save(context.Background(), models.PhaseState{Phase: "idle"}); err == nil {
		t.Fatalf("expected error")
	}
}

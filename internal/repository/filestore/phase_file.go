package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"wellpump/internal/models"
	"wellpump/internal/repository"

	"github.com/spf13/afero"
)

// PhaseFile stores {"phase": "on"|"off", "until": RFC3339 | null}.
type PhaseFile struct {
	fs   afero.Fs
	path string
}

func NewPhaseFile(fs afero.Fs, path string) *PhaseFile {
	return &PhaseFile{fs: fs, path: path}
}

var _ repository.PhaseStore = (*PhaseFile)(nil)

// phaseRecord keeps until as text so a malformed timestamp is reported, not zeroed.
type phaseRecord struct {
	Phase string  `json:"phase"`
	Until *string `json:"until"`
}

func (p *PhaseFile) Load(_ context.Context) (models.PhaseState, error) {
	b, err := readFile(p.fs, p.path)
	if err != nil {
		return models.PhaseState{}, &repository.PersistenceError{Store: "phase", Err: err}
	}
	if b == nil {
		return models.IdlePhase(), nil
	}

	var rec phaseRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return models.PhaseState{}, &repository.PersistenceError{
			Store: "phase",
			Err:   fmt.Errorf("decode %s: %w", p.path, err),
		}
	}
	until := ""
	if rec.Until != nil {
		if *rec.Until == "" {
			return models.PhaseState{}, &repository.PersistenceError{Store: "phase", Err: errors.New("empty until")}
		}
		until = *rec.Until
	}
	st, err := repository.DecodePhase(rec.Phase, until)
	if err != nil {
		return models.PhaseState{}, &repository.PersistenceError{Store: "phase", Err: err}
	}
	return st, nil
}

func (p *PhaseFile) Save(_ context.Context, s models.PhaseState) error {
	if !s.Phase.Valid() {
		return fmt.Errorf("save phase: unknown phase %q", s.Phase)
	}
	rec := phaseRecord{Phase: string(s.Phase)}
	if s.Until != nil {
		u := repository.EncodeUntil(s.Until)
		rec.Until = &u
	}
	return writeJSON(p.fs, p.path, rec)
}

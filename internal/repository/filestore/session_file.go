package filestore

import (
	"context"
	"encoding/json"
	"time"

	"wellpump/internal/models"
	"wellpump/internal/repository"

	"github.com/spf13/afero"
)

// SessionFile stores {"token": ..., "expiresAt": ...}.
type SessionFile struct {
	fs   afero.Fs
	path string
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionFile(fs afero.Fs, path string, ttl time.Duration) *SessionFile {
	if ttl <= 0 {
		ttl = repository.DefaultSessionTTL
	}
	return &SessionFile{fs: fs, path: path, ttl: ttl, now: time.Now}
}

var _ repository.SessionStore = (*SessionFile)(nil)

func (s *SessionFile) Load(_ context.Context) (models.Session, bool) {
	b, err := readFile(s.fs, s.path)
	if err != nil || b == nil {
		return models.Session{}, false
	}
	var sess models.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return models.Session{}, false
	}
	if !sess.Usable(s.now()) {
		return models.Session{}, false
	}
	return sess, true
}

func (s *SessionFile) Save(_ context.Context, token string) error {
	return writeJSON(s.fs, s.path, models.Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl),
	})
}

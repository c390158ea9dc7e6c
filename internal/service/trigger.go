package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wellpump/internal/logger"
)

// Runner executes one engine step.
type Runner interface {
	Run(ctx context.Context, now time.Time) (RunResult, error)
}

// TriggerService is the single entry point for runs. The web trigger, the API
// and the poller share one instance so runs never overlap.
type TriggerService struct {
	mu     sync.Mutex
	runner Runner
	loc    *time.Location
	now    func() time.Time
	log    *logger.Logger
}

func NewTriggerService(runner Runner, loc *time.Location, log *logger.Logger) *TriggerService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TriggerService{runner: runner, loc: loc, now: time.Now, log: log}
}

// RunNow performs one serialized run at the current time.
func (s *TriggerService) RunNow(ctx context.Context) (res RunResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("pump_run_panic", "panic", r)
			err = fmt.Errorf("pump run panicked: %v", r)
		}
	}()
	return s.runner.Run(ctx, s.now().In(s.loc))
}

// Trigger runs once and renders the outcome as a status line.
func (s *TriggerService) Trigger(ctx context.Context) string {
	res, err := s.RunNow(ctx)
	if err != nil {
		return "Error: " + err.Error()
	}
	return "Started: " + res.Message
}

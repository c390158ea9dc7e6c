package service

import (
	"context"
	"time"

	"wellpump/internal/logger"
)

// Triggerer is anything that can start a run and report a status line.
type Triggerer interface {
	Trigger(ctx context.Context) string
}

// PollerService invokes the trigger on a fixed schedule.
type PollerService struct {
	trigger Triggerer
	log     *logger.Logger
}

func NewPollerService(trigger Triggerer, log *logger.Logger) *PollerService {
	if log == nil {
		log = logger.Nop()
	}
	return &PollerService{trigger: trigger, log: log}
}

// Run ticks at the given interval until ctx is canceled. A non-positive tick disables polling.
func (s *PollerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		s.log.Infow("pump_poller_disabled")
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := s.trigger.Trigger(ctx)
			s.log.Infow("pump_poll", "status", status)
		}
	}
}

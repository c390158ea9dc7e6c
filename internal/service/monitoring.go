package service

import (
	"context"
	"time"

	"wellpump/internal/repository"
)

type MonitoringService struct {
	phases repository.PhaseStore
	policy AccessPolicy
	now    func() time.Time
}

func NewMonitoringService(phases repository.PhaseStore, policy AccessPolicy) *MonitoringService {
	return &MonitoringService{phases: phases, policy: policy, now: time.Now}
}

// GetStatus returns the persisted phase and whether pumping is currently permitted.
// It never contacts the platform.
func (s *MonitoringService) GetStatus(ctx context.Context) (PumpStatus, error) {
	st, err := s.phases.Load(ctx)
	if err != nil {
		return PumpStatus{}, err
	}
	now := s.now()
	if s.policy.Location != nil {
		now = now.In(s.policy.Location)
	}
	return PumpStatus{
		Phase:      st.Phase,
		Until:      st.Until,
		WindowOpen: s.policy.IsAllowed(now),
		CheckedAt:  now,
	}, nil
}

package service

import (
	"context"
	"time"

	"wellpump/internal/logger"
	"wellpump/internal/models"
	"wellpump/internal/repository"
)

type Authorization interface {
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Pump starts runs, either as a status line or as a structured result.
type Pump interface {
	Trigger(ctx context.Context) string
	RunNow(ctx context.Context) (RunResult, error)
}

// Monitoring exposes read-only pump state.
type Monitoring interface {
	GetStatus(ctx context.Context) (PumpStatus, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PumpEvent, error)
}

// Poller runs the scheduled trigger loop; stop it by cancelling ctx.
type Poller interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	Pump
	Monitoring
	EventLog
	Poller
	Authorization
}

// Deps is everything NewService needs from main.
type Deps struct {
	Repos    *repository.Repository
	Platform Platform
	Recorder Recorder
	Engine   EngineConfig
	Operator OperatorConfig
	Log      *logger.Logger
}

func NewService(d Deps) *Service {
	engine := NewEngine(d.Engine, d.Platform, d.Repos.Phases, d.Repos.EventRepo, d.Recorder, d.Log)
	trigger := NewTriggerService(engine, d.Engine.Policy.Location, d.Log)
	return &Service{
		Pump:          trigger,
		Monitoring:    NewMonitoringService(d.Repos.Phases, d.Engine.Policy),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Poller:        NewPollerService(trigger, d.Log),
		Authorization: NewAuthService(d.Operator),
	}
}

package service

import (
	"time"

	"wellpump/internal/models"
)

// Outcome names what a run decided.
type Outcome string

const (
	OutcomeOutsideWindow   Outcome = "outside_window"
	OutcomeLevelSufficient Outcome = "level_sufficient"
	OutcomeRunning         Outcome = "running"
	OutcomeCooldownStarted Outcome = "cooldown_started"
	OutcomeCoolingDown     Outcome = "cooling_down"
	OutcomePumpOn          Outcome = "pump_on"
	OutcomeFailed          Outcome = "failed"
)

// RunResult describes one engine run.
type RunResult struct {
	Outcome Outcome           `json:"outcome"`
	Message string            `json:"message"`
	LevelCM *float64          `json:"level_cm,omitempty"`
	Phase   models.PhaseState `json:"phase"`
	At      time.Time         `json:"at"`
}

// PumpStatus is a read-only snapshot for dashboards.
type PumpStatus struct {
	Phase      models.Phase `json:"phase"`
	Until      *time.Time   `json:"until,omitempty"`
	WindowOpen bool         `json:"window_open"`
	CheckedAt  time.Time    `json:"checked_at"`
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "PUMP_ON", "PUMP_OFF", "COOLDOWN", "HOLD", "SKIPPED", "ERROR"
}

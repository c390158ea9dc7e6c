package models

import "time"

// Event types written to the pump event log.
const (
	EventPumpOn   = "PUMP_ON"
	EventPumpOff  = "PUMP_OFF"
	EventCooldown = "COOLDOWN"
	EventHold     = "HOLD"
	EventSkipped  = "SKIPPED"
	EventError    = "ERROR"
)

// PumpEvent is a single log entry.
type PumpEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // PUMP_ON | PUMP_OFF | COOLDOWN | HOLD | SKIPPED | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

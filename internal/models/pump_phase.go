package models

import "time"

// Phase is the persisted control phase of the pump.
type Phase string

const (
	PhaseOff Phase = "off"
	PhaseOn  Phase = "on"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p == PhaseOff || p == PhaseOn
}

// PhaseState is the persisted timer contract. Until is the end of the minimum
// run time (PhaseOn) or of the cooldown (PhaseOff); nil under PhaseOff means
// the pump may re-engage immediately.
type PhaseState struct {
	Phase Phase      `json:"phase"`
	Until *time.Time `json:"until"`
}

// IdlePhase returns the initial {off, null} state.
func IdlePhase() PhaseState {
	return PhaseState{Phase: PhaseOff}
}

// Holds reports whether the phase still holds at now.
func (s PhaseState) Holds(now time.Time) bool {
	return s.Until != nil && now.Before(*s.Until)
}

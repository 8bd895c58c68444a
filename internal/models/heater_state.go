package models

import "time"

// Phase is the heater state machine position.
type Phase string

const (
	PhaseIdle     Phase = "IDLE"
	PhaseHeating  Phase = "HEATING"
	PhaseAtTarget Phase = "AT_TARGET"
	PhaseFault    Phase = "FAULT"
)

// Verdict is the safety evaluation result. Every value but VerdictOK is a
// terminal fault reason.
type Verdict string

const (
	VerdictOK           Verdict = "OK"
	VerdictRunaway      Verdict = "RUNAWAY"
	VerdictFailedToHeat Verdict = "FAILED_TO_HEAT"
	VerdictSensorFault  Verdict = "SENSOR_FAULT"
)

// HeaterState is a copy of a heater's live state.
type HeaterState struct {
	Channel         ChannelID `json:"channel"`
	Phase           Phase     `json:"phase"`
	CurrentTempC    float64   `json:"current_temp_c"`
	TargetTempC     float64   `json:"target_temp_c"`
	Power           float64   `json:"power"` // 0..1
	Fault           bool      `json:"fault"`
	FaultReason     Verdict   `json:"fault_reason,omitempty"`
	FaultMessage    string    `json:"fault_message,omitempty"`
	TargetReachedAt time.Time `json:"target_reached_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SinceTargetReached is how long ago the target band was last seen, zero
// when it has not been reached for the current target.
func (s HeaterState) SinceTargetReached(now time.Time) time.Duration {
	if s.TargetReachedAt.IsZero() {
		return 0
	}
	return now.Sub(s.TargetReachedAt)
}

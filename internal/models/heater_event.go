package models

import "time"

// Event types.
const (
	EventTargetSet   = "TARGET_SET"
	EventPhaseChange = "PHASE_CHANGE"
	EventFault       = "FAULT"
	EventAcknowledge = "ACKNOWLEDGE"
	EventSensorError = "SENSOR_ERROR"
	EventOutputError = "OUTPUT_ERROR"
)

// HeaterEvent is a single log entry.
type HeaterEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Channel     ChannelID `json:"channel"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

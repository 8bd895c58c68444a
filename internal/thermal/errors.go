package thermal

import (
	"errors"
	"fmt"

	"thermal_guard/internal/models"
)

var (
	ErrRunaway           = errors.New("thermal runaway")
	ErrFailedToHeat      = errors.New("heating failed")
	ErrSensorFault       = errors.New("sensor fault")
	ErrHeaterFaulted     = errors.New("heater is in fault state")
	ErrUnknownChannel    = errors.New("unknown heater channel")
	ErrTargetOutOfRange  = errors.New("target temperature out of range")
	ErrUnsupportedSensor = errors.New("unsupported sensor type")
	ErrQueueFull         = errors.New("command queue full")
	ErrLoopStopped       = errors.New("control loop stopped")
)

// FaultError maps a non-OK verdict to its sentinel.
func FaultError(v models.Verdict) error {
	switch v {
	case models.VerdictRunaway:
		return ErrRunaway
	case models.VerdictFailedToHeat:
		return ErrFailedToHeat
	case models.VerdictSensorFault:
		return ErrSensorFault
	}
	return nil
}

// SensorErrorKind classifies an implausible or missing reading.
type SensorErrorKind string

const (
	SensorOpen       SensorErrorKind = "open"
	SensorShort      SensorErrorKind = "short"
	SensorOutOfTable SensorErrorKind = "out-of-table"
	SensorTimeout    SensorErrorKind = "timeout"
	SensorRead       SensorErrorKind = "read"
)

// SensorError reports a reading that could not be turned into a
// temperature. Only SensorTimeout is terminal on first occurrence.
type SensorError struct {
	Channel models.ChannelID
	Kind    SensorErrorKind
	Raw     float64
	Err     error
}

func (e *SensorError) Error() string {
	switch e.Kind {
	case SensorTimeout, SensorRead:
		if e.Err != nil {
			return fmt.Sprintf("sensor %s: %s: %v", e.Channel, e.Kind, e.Err)
		}
		return fmt.Sprintf("sensor %s: %s", e.Channel, e.Kind)
	}
	return fmt.Sprintf("sensor %s: %s (raw %.1f)", e.Channel, e.Kind, e.Raw)
}

func (e *SensorError) Unwrap() error { return e.Err }

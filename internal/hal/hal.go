// Package hal abstracts the printer board: analog sensor inputs, digital
// endstop inputs and heater PWM outputs.
package hal

import (
	"context"
	"errors"
)

// AnalogInput returns the raw ADC count of a pin.
type AnalogInput interface {
	ReadAnalog(ctx context.Context, pin int) (float64, error)
}

// DigitalInput returns the electrical level of a pin.
type DigitalInput interface {
	ReadDigital(ctx context.Context, pin int) (bool, error)
}

// PWMOutput sets a heater duty cycle in 0..1. Implementations must not
// block on I/O; the control loop calls it every tick.
type PWMOutput interface {
	SetPWM(pin int, duty float64) error
}

// Board is a complete hardware backend.
type Board interface {
	AnalogInput
	DigitalInput
	PWMOutput
	Close() error
}

var (
	ErrStaleReading = errors.New("stale reading")
	ErrNoReading    = errors.New("no reading yet")
	ErrClosed       = errors.New("board closed")
	ErrUnknownPin   = errors.New("unknown pin")
	ErrUnknownFault = errors.New("unknown fault")
)

func clampDuty(d float64) float64 {
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

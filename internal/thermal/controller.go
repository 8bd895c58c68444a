package thermal

import (
	"fmt"
	"time"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
)

// HeaterController drives one heater output and owns its phase. It is not
// safe for concurrent use; the control loop is its only caller.
type HeaterController struct {
	ch    models.HeaterChannel
	out   hal.PWMOutput
	algo  ControlAlgorithm
	state models.HeaterState
}

func NewHeaterController(ch models.HeaterChannel, out hal.PWMOutput) (*HeaterController, error) {
	algo, err := NewControlAlgorithm(ch.Control)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", ch.ID, err)
	}
	return &HeaterController{
		ch:   ch,
		out:  out,
		algo: algo,
		state: models.HeaterState{
			Channel: ch.ID,
			Phase:   models.PhaseIdle,
		},
	}, nil
}

// State returns a copy of the heater state.
func (c *HeaterController) State() models.HeaterState { return c.state }

// SetTarget changes the target. Zero turns the heater off. It reports
// whether the phase changed.
func (c *HeaterController) SetTarget(tempC float64, now time.Time) (bool, error) {
	if c.state.Phase == models.PhaseFault {
		return false, fmt.Errorf("%w: %s (%s)", ErrHeaterFaulted, c.ch.ID, c.state.FaultReason)
	}
	if tempC < 0 || tempC > 0 && (tempC <= c.ch.MinTempC || tempC >= c.ch.MaxTempC) {
		return false, fmt.Errorf("%w: %.1f not in (%.1f, %.1f)", ErrTargetOutOfRange, tempC, c.ch.MinTempC, c.ch.MaxTempC)
	}
	prev := c.state.Phase
	c.state.UpdatedAt = now
	if tempC == 0 {
		c.state.TargetTempC = 0
		c.state.TargetReachedAt = time.Time{}
		c.state.Phase = models.PhaseIdle
		return prev != c.state.Phase, nil
	}
	if tempC == c.state.TargetTempC && prev != models.PhaseIdle {
		return false, nil
	}
	c.state.TargetTempC = tempC
	c.state.TargetReachedAt = time.Time{}
	c.state.Phase = models.PhaseHeating
	return prev != c.state.Phase, nil
}

// Observe applies a fresh sample and moves HEATING to AT_TARGET once the
// temperature reaches the lower edge of the protection band. It reports a
// phase change.
func (c *HeaterController) Observe(s models.ThermalSample) bool {
	c.state.CurrentTempC = s.TempC
	c.state.UpdatedAt = s.At
	inBand := abs(s.TempC-c.state.TargetTempC) <= c.ch.ProtectionHysteresisC
	switch c.state.Phase {
	case models.PhaseHeating:
		// overshooting past the band in one tick still counts as reached
		if s.TempC >= c.state.TargetTempC-c.ch.ProtectionHysteresisC {
			c.state.Phase = models.PhaseAtTarget
			c.state.TargetReachedAt = s.At
			return true
		}
	case models.PhaseAtTarget:
		if inBand {
			c.state.TargetReachedAt = s.At
		}
	}
	return false
}

// Actuate computes and writes the heater power. IDLE and FAULT always
// write zero.
func (c *HeaterController) Actuate(now time.Time) error {
	power := 0.0
	switch c.state.Phase {
	case models.PhaseHeating, models.PhaseAtTarget:
		power = c.algo.Update(now, c.state.CurrentTempC, c.state.TargetTempC)
	}
	return c.write(power)
}

// HoldOff turns the output off for a tick without changing phase, used
// when the sensor could not be read.
func (c *HeaterController) HoldOff() error {
	return c.write(0)
}

// Fault moves the heater to FAULT and turns the output off. It returns
// false when the heater was already faulted.
func (c *HeaterController) Fault(reason models.Verdict, msg string, now time.Time) (bool, error) {
	if c.state.Phase == models.PhaseFault {
		return false, c.write(0)
	}
	c.state.Phase = models.PhaseFault
	c.state.Fault = true
	c.state.FaultReason = reason
	c.state.FaultMessage = msg
	c.state.UpdatedAt = now
	return true, c.write(0)
}

// Acknowledge clears a fault, leaving the heater IDLE with no target.
func (c *HeaterController) Acknowledge(now time.Time) error {
	if c.state.Phase != models.PhaseFault {
		return nil
	}
	algo, err := NewControlAlgorithm(c.ch.Control)
	if err != nil {
		return err
	}
	c.algo = algo
	c.state = models.HeaterState{
		Channel:      c.ch.ID,
		Phase:        models.PhaseIdle,
		CurrentTempC: c.state.CurrentTempC,
		UpdatedAt:    now,
	}
	return c.write(0)
}

func (c *HeaterController) write(power float64) error {
	c.state.Power = power
	if err := c.out.SetPWM(c.ch.PWMPin, power); err != nil {
		return fmt.Errorf("set pwm %s: %w", c.ch.ID, err)
	}
	return nil
}

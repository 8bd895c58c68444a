package thermal

import (
	"fmt"
	"math"
	"time"

	"thermal_guard/internal/models"
)

// ControlAlgorithm computes heater power (0..max power) from a reading.
type ControlAlgorithm interface {
	Update(at time.Time, tempC, targetC float64) float64
}

const (
	pidParamBase    = 255.0
	pidMinDerivTime = 2 * time.Second
)

// NewControlAlgorithm builds the algorithm configured for a channel.
func NewControlAlgorithm(s models.ControlSettings) (ControlAlgorithm, error) {
	switch s.Kind {
	case models.ControlPID:
		return newPIDControl(s)
	case models.ControlBangBang, "":
		if s.MaxDelta <= 0 {
			return nil, fmt.Errorf("bang-bang max delta must be positive")
		}
		return &bangBangControl{maxPower: s.MaxPower, maxDelta: s.MaxDelta}, nil
	}
	return nil, fmt.Errorf("unknown control kind %q", s.Kind)
}

type bangBangControl struct {
	maxPower float64
	maxDelta float64
	heating  bool
}

func (c *bangBangControl) Update(_ time.Time, tempC, targetC float64) float64 {
	if c.heating && tempC >= targetC+c.maxDelta {
		c.heating = false
	} else if !c.heating && tempC <= targetC-c.maxDelta {
		c.heating = true
	}
	if c.heating {
		return c.maxPower
	}
	return 0
}

// pidControl uses firmware-scale gains divided by 255, a smoothed
// derivative and an integral clamped to max power.
type pidControl struct {
	maxPower  float64
	kp        float64
	ki        float64
	kd        float64
	integMax  float64
	prevTemp  float64
	prevTime  time.Time
	prevDeriv float64
	prevInteg float64
}

func newPIDControl(s models.ControlSettings) (*pidControl, error) {
	if s.Kp == 0 || s.Ki == 0 || s.Kd == 0 {
		return nil, fmt.Errorf("PID gains must be non-zero")
	}
	c := &pidControl{
		maxPower: s.MaxPower,
		kp:       s.Kp / pidParamBase,
		ki:       s.Ki / pidParamBase,
		kd:       s.Kd / pidParamBase,
	}
	c.integMax = c.maxPower / c.ki
	return c, nil
}

func (c *pidControl) Update(at time.Time, tempC, targetC float64) float64 {
	if c.prevTime.IsZero() {
		c.prevTime = at
		c.prevTemp = tempC
	}
	dt := at.Sub(c.prevTime).Seconds()
	minDeriv := pidMinDerivTime.Seconds()

	var deriv float64
	if dt >= minDeriv {
		deriv = (tempC - c.prevTemp) / dt
	} else {
		deriv = (c.prevDeriv*(minDeriv-dt) + (tempC - c.prevTemp)) / minDeriv
	}

	errC := targetC - tempC
	integ := math.Max(0, math.Min(c.integMax, c.prevInteg+errC*dt))

	co := c.kp*errC + c.ki*integ - c.kd*deriv
	bounded := math.Max(0, math.Min(c.maxPower, co))

	c.prevTemp = tempC
	c.prevTime = at
	c.prevDeriv = deriv
	if co == bounded {
		c.prevInteg = integ
	}
	return bounded
}

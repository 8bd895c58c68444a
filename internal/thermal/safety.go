package thermal

import (
	"time"

	"thermal_guard/internal/models"
)

// SafetyMonitor decides whether a heater may keep running. It holds the
// per-heater heating watch (goal temperature and deadline) and nothing else;
// it is used only from the control loop goroutine.
type SafetyMonitor struct {
	maxSensorErrors int
	watches         map[models.ChannelID]*heatingWatch
}

type heatingWatch struct {
	target   float64
	goalC    float64
	deadline time.Time
}

func NewSafetyMonitor(maxSensorErrors int) *SafetyMonitor {
	return &SafetyMonitor{
		maxSensorErrors: maxSensorErrors,
		watches:         make(map[models.ChannelID]*heatingWatch),
	}
}

// Evaluate checks the newest sample and the recent window of ch against its
// limits. st must reflect the sample already, i.e. phase transitions for it
// have been applied. Runaway is checked once the target was reached and,
// in any phase, while the heater sits above the band.
func (m *SafetyMonitor) Evaluate(ch models.HeaterChannel, st models.HeaterState, recent []models.ThermalSample) models.Verdict {
	if st.Phase == models.PhaseFault {
		return st.FaultReason
	}
	if len(recent) == 0 {
		return models.VerdictOK
	}
	last := recent[len(recent)-1]

	// limits apply regardless of protection toggles and target
	if last.TempC > ch.MaxTempC || last.TempC < ch.MinTempC {
		return models.VerdictSensorFault
	}

	if st.Phase != models.PhaseHeating {
		delete(m.watches, ch.ID)
	}
	if !ch.ProtectionEnabled || st.TargetTempC <= 0 {
		return models.VerdictOK
	}

	above := last.TempC > st.TargetTempC+ch.ProtectionHysteresisC
	if (st.Phase == models.PhaseAtTarget || above) && runaway(ch, st.TargetTempC, recent) {
		return models.VerdictRunaway
	}
	if st.Phase == models.PhaseHeating && m.failedToHeat(ch, st.TargetTempC, last) {
		return models.VerdictFailedToHeat
	}
	return models.VerdictOK
}

// SensorFailure decides whether a failed read is terminal. consecutive is
// the number of failed reads in a row including this one.
func (m *SafetyMonitor) SensorFailure(err *SensorError, consecutive int) models.Verdict {
	if err.Kind == SensorTimeout || consecutive > m.maxSensorErrors {
		return models.VerdictSensorFault
	}
	return models.VerdictOK
}

// Reset drops the heating watch of a heater.
func (m *SafetyMonitor) Reset(id models.ChannelID) {
	delete(m.watches, id)
}

// runaway is true when the window covers a full period and every sample in
// it is outside target ± hysteresis.
func runaway(ch models.HeaterChannel, target float64, recent []models.ThermalSample) bool {
	if len(recent) < 2 {
		return false
	}
	if recent[len(recent)-1].At.Sub(recent[0].At) < ch.ProtectionPeriod {
		return false
	}
	for _, s := range recent {
		if abs(s.TempC-target) <= ch.ProtectionHysteresisC {
			return false
		}
	}
	return true
}

// failedToHeat tracks progress while below the band: each gain of
// HeatingGainC pushes the deadline one period out.
func (m *SafetyMonitor) failedToHeat(ch models.HeaterChannel, target float64, s models.ThermalSample) bool {
	w, ok := m.watches[ch.ID]
	if !ok || w.target != target {
		w = &heatingWatch{target: target}
		m.watches[ch.ID] = w
		w.rearm(ch, s)
		return false
	}
	if s.TempC >= target-ch.ProtectionHysteresisC || s.TempC >= w.goalC {
		w.rearm(ch, s)
		return false
	}
	return !s.At.Before(w.deadline)
}

func (w *heatingWatch) rearm(ch models.HeaterChannel, s models.ThermalSample) {
	w.goalC = s.TempC + ch.HeatingGainC
	w.deadline = s.At.Add(ch.ProtectionPeriod)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

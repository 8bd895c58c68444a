package thermal

import (
	"time"

	"thermal_guard/internal/models"
)

// SampleWindow keeps the samples of the last protection period, plus the
// newest sample at or before the period boundary so the window can span
// the whole period under tick jitter.
type SampleWindow struct {
	period  time.Duration
	samples []models.ThermalSample
}

func NewSampleWindow(period time.Duration) *SampleWindow {
	return &SampleWindow{period: period}
}

// Push appends s and prunes samples that fell out of the period.
func (w *SampleWindow) Push(s models.ThermalSample) {
	w.samples = append(w.samples, s)
	boundary := s.At.Add(-w.period)
	drop := 0
	for drop+1 < len(w.samples) && !w.samples[drop+1].At.After(boundary) {
		drop++
	}
	if drop > 0 {
		n := copy(w.samples, w.samples[drop:])
		w.samples = w.samples[:n]
	}
}

// Samples returns a copy, oldest first.
func (w *SampleWindow) Samples() []models.ThermalSample {
	out := make([]models.ThermalSample, len(w.samples))
	copy(out, w.samples)
	return out
}

// Span is the time between the oldest and newest sample.
func (w *SampleWindow) Span() time.Duration {
	if len(w.samples) < 2 {
		return 0
	}
	return w.samples[len(w.samples)-1].At.Sub(w.samples[0].At)
}

func (w *SampleWindow) Len() int { return len(w.samples) }

func (w *SampleWindow) Reset() { w.samples = w.samples[:0] }

// RuntimeState is the mutable per-heater record owned by the loop.
type RuntimeState struct {
	Channel         models.ChannelID
	CurrentTempC    float64
	TargetTempC     float64
	UpdatedAt       time.Time
	GoodReadingTime time.Duration
	SensorErrors    int
	Window          *SampleWindow
	lastGood        time.Time
}

func NewRuntimeState(ch models.HeaterChannel) *RuntimeState {
	return &RuntimeState{
		Channel: ch.ID,
		Window:  NewSampleWindow(ch.ProtectionPeriod),
	}
}

// Record stores a good sample and clears the consecutive error count.
func (rt *RuntimeState) Record(s models.ThermalSample) {
	if !rt.lastGood.IsZero() && rt.SensorErrors == 0 {
		rt.GoodReadingTime += s.At.Sub(rt.lastGood)
	}
	rt.lastGood = s.At
	rt.CurrentTempC = s.TempC
	rt.UpdatedAt = s.At
	rt.SensorErrors = 0
	rt.Window.Push(s)
}

// RecordError counts a failed read and returns the consecutive total.
func (rt *RuntimeState) RecordError(at time.Time) int {
	rt.SensorErrors++
	rt.GoodReadingTime = 0
	rt.UpdatedAt = at
	return rt.SensorErrors
}

// Reset forgets history, used when a fault is acknowledged.
func (rt *RuntimeState) Reset() {
	rt.Window.Reset()
	rt.SensorErrors = 0
	rt.GoodReadingTime = 0
	rt.lastGood = time.Time{}
}

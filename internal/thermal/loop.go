package thermal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/logger"
	"thermal_guard/internal/models"
)

// Observer receives loop measurements. Implementations must not block.
type Observer interface {
	ObserveTick(d time.Duration)
	ObserveHeater(st models.HeaterState)
	SensorError(id models.ChannelID, kind SensorErrorKind)
	Fault(id models.ChannelID, reason models.Verdict)
	EventDropped()
}

type nopObserver struct{}

func (nopObserver) ObserveTick(time.Duration)                     {}
func (nopObserver) ObserveHeater(models.HeaterState)              {}
func (nopObserver) SensorError(models.ChannelID, SensorErrorKind) {}
func (nopObserver) Fault(models.ChannelID, models.Verdict)        {}
func (nopObserver) EventDropped()                                 {}

const (
	defaultCommandBuf = 32
	defaultEventBuf   = 256
	shutdownFlush     = time.Second
)

type commandKind int

const (
	cmdSetTarget commandKind = iota
	cmdAcknowledge
)

type command struct {
	kind    commandKind
	channel models.ChannelID
	target  float64
	reply   chan error
}

type heaterSlot struct {
	ch  models.HeaterChannel
	ctl *HeaterController
	rt  *RuntimeState
}

// Loop is the single owner of every heater's runtime state. Run drives it
// from a ticker; other goroutines talk to it through commands and read
// snapshots.
type Loop struct {
	heaters  []*heaterSlot
	byID     map[models.ChannelID]*heaterSlot
	reader   *SensorReader
	monitor  *SafetyMonitor
	budget   time.Duration
	log      *logger.Logger
	obs      Observer
	commands chan command
	events   chan models.HeaterEvent
	pending  []models.HeaterEvent

	mu       sync.RWMutex
	snapshot []models.HeaterState
	stopped  chan struct{}
}

// LoopConfig holds the loop tuning knobs.
type LoopConfig struct {
	// SensorBudget bounds the reads of one tick taken together.
	SensorBudget    time.Duration
	MaxSensorErrors int
	Observer        Observer
}

func NewLoop(channels []models.HeaterChannel, reader *SensorReader, out hal.PWMOutput, cfg LoopConfig, log *logger.Logger) (*Loop, error) {
	if cfg.SensorBudget <= 0 {
		return nil, errors.New("sensor budget must be positive")
	}
	obs := cfg.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	l := &Loop{
		byID:     make(map[models.ChannelID]*heaterSlot, len(channels)),
		reader:   reader,
		monitor:  NewSafetyMonitor(cfg.MaxSensorErrors),
		budget:   cfg.SensorBudget,
		log:      log,
		obs:      obs,
		commands: make(chan command, defaultCommandBuf),
		events:   make(chan models.HeaterEvent, defaultEventBuf),
		stopped:  make(chan struct{}),
	}
	for _, ch := range channels {
		ctl, err := NewHeaterController(ch, out)
		if err != nil {
			return nil, err
		}
		slot := &heaterSlot{ch: ch, ctl: ctl, rt: NewRuntimeState(ch)}
		l.heaters = append(l.heaters, slot)
		l.byID[ch.ID] = slot
	}
	l.publish()
	return l, nil
}

// Run ticks until ctx is cancelled, then switches every heater off.
func (l *Loop) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	defer close(l.stopped)
	defer l.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.Step(ctx, now)
		}
	}
}

// Step runs one control tick at now: commands, sampling, safety,
// actuation, snapshot. All heaters are read concurrently under one shared
// deadline, so a tick spends at most the sensor budget waiting on sensors.
func (l *Loop) Step(ctx context.Context, now time.Time) {
	start := time.Now()
	l.drainCommands(now)

	readCtx, cancel := context.WithTimeout(ctx, l.budget)
	reads := l.sampleAll(readCtx, now)
	cancel()

	for i, slot := range l.heaters {
		l.stepHeater(slot, reads[i], now)
	}

	l.flushPending()
	l.publish()
	l.obs.ObserveTick(time.Since(start))
}

type sensorRead struct {
	sample models.ThermalSample
	err    error
}

// sampleAll reads every heater that is not latched in FAULT.
func (l *Loop) sampleAll(ctx context.Context, now time.Time) []sensorRead {
	reads := make([]sensorRead, len(l.heaters))
	var wg sync.WaitGroup
	for i, slot := range l.heaters {
		if slot.ctl.State().Phase == models.PhaseFault {
			continue
		}
		wg.Add(1)
		go func(i int, ch models.HeaterChannel) {
			defer wg.Done()
			s, err := l.reader.Sample(ctx, ch, now)
			reads[i] = sensorRead{sample: s, err: err}
		}(i, slot.ch)
	}
	wg.Wait()
	return reads
}

func (l *Loop) stepHeater(slot *heaterSlot, read sensorRead, now time.Time) {
	id := slot.ch.ID
	if slot.ctl.State().Phase == models.PhaseFault {
		if err := slot.ctl.Actuate(now); err != nil {
			l.emit(l.event(now, id, models.EventOutputError, err.Error(), nil))
		}
		return
	}

	if read.err != nil {
		l.sensorFailure(slot, read.err, now)
		return
	}
	sample := read.sample
	slot.rt.Record(sample)

	prev := slot.ctl.State().Phase
	if slot.ctl.Observe(sample) {
		l.phaseChanged(slot, prev, now)
	}
	slot.rt.TargetTempC = slot.ctl.State().TargetTempC

	if v := l.monitor.Evaluate(slot.ch, slot.ctl.State(), slot.rt.Window.Samples()); v != models.VerdictOK {
		l.fault(slot, v, faultMessage(v, slot, sample), now)
		return
	}
	if err := slot.ctl.Actuate(now); err != nil {
		l.emit(l.event(now, id, models.EventOutputError, err.Error(), nil))
	}
}

func (l *Loop) sensorFailure(slot *heaterSlot, err error, now time.Time) {
	var se *SensorError
	if !errors.As(err, &se) {
		se = &SensorError{Channel: slot.ch.ID, Kind: SensorRead, Err: err}
	}
	l.obs.SensorError(slot.ch.ID, se.Kind)
	// an idle heater whose board has not reported yet is still starting up
	if errors.Is(err, hal.ErrNoReading) && slot.ctl.State().Phase == models.PhaseIdle {
		if err := slot.ctl.HoldOff(); err != nil {
			l.emit(l.event(now, slot.ch.ID, models.EventOutputError, err.Error(), nil))
		}
		return
	}
	n := slot.rt.RecordError(now)
	l.emit(l.event(now, slot.ch.ID, models.EventSensorError, se.Error(), map[string]any{
		"kind":        se.Kind,
		"consecutive": n,
	}))
	if v := l.monitor.SensorFailure(se, n); v != models.VerdictOK {
		l.fault(slot, v, se.Error(), now)
		return
	}
	if err := slot.ctl.HoldOff(); err != nil {
		l.emit(l.event(now, slot.ch.ID, models.EventOutputError, err.Error(), nil))
	}
}

func (l *Loop) fault(slot *heaterSlot, v models.Verdict, msg string, now time.Time) {
	first, err := slot.ctl.Fault(v, msg, now)
	if err != nil {
		l.emit(l.event(now, slot.ch.ID, models.EventOutputError, err.Error(), nil))
	}
	if !first {
		return
	}
	l.monitor.Reset(slot.ch.ID)
	l.obs.Fault(slot.ch.ID, v)
	l.emit(l.event(now, slot.ch.ID, models.EventFault, msg, map[string]any{
		"reason":     v,
		"temp_c":     slot.ctl.State().CurrentTempC,
		"target_c":   slot.ctl.State().TargetTempC,
		"max_temp":   slot.ch.MaxTempC,
		"min_temp":   slot.ch.MinTempC,
		"period_s":   slot.ch.ProtectionPeriod.Seconds(),
		"hysteresis": slot.ch.ProtectionHysteresisC,
	}))
}

func faultMessage(v models.Verdict, slot *heaterSlot, s models.ThermalSample) string {
	ch := slot.ch
	switch v {
	case models.VerdictSensorFault:
		if s.TempC > ch.MaxTempC {
			return fmt.Sprintf("%s: MAXTEMP triggered at %.1f°C (max %.1f°C)", ch.ID, s.TempC, ch.MaxTempC)
		}
		return fmt.Sprintf("%s: MINTEMP triggered at %.1f°C (min %.1f°C)", ch.ID, s.TempC, ch.MinTempC)
	case models.VerdictRunaway:
		return fmt.Sprintf("%s: thermal runaway, %.1f°C outside %.1f±%.1f°C for %s",
			ch.ID, s.TempC, slot.ctl.State().TargetTempC, ch.ProtectionHysteresisC, ch.ProtectionPeriod)
	case models.VerdictFailedToHeat:
		return fmt.Sprintf("%s: heating failed, less than %.1f°C gain in %s (at %.1f°C)",
			ch.ID, ch.HeatingGainC, ch.ProtectionPeriod, s.TempC)
	}
	return string(v)
}

func (l *Loop) phaseChanged(slot *heaterSlot, prev models.Phase, now time.Time) {
	st := slot.ctl.State()
	l.emit(l.event(now, slot.ch.ID, models.EventPhaseChange,
		fmt.Sprintf("%s: %s -> %s", slot.ch.ID, prev, st.Phase),
		map[string]any{"from": prev, "to": st.Phase, "temp_c": st.CurrentTempC, "target_c": st.TargetTempC}))
}

// SetTarget queues a target change and waits for the loop to apply it.
func (l *Loop) SetTarget(ctx context.Context, id models.ChannelID, tempC float64) error {
	return l.call(ctx, command{kind: cmdSetTarget, channel: id, target: tempC})
}

// Acknowledge clears a heater fault.
func (l *Loop) Acknowledge(ctx context.Context, id models.ChannelID) error {
	return l.call(ctx, command{kind: cmdAcknowledge, channel: id})
}

func (l *Loop) call(ctx context.Context, c command) error {
	reply, err := l.enqueue(c)
	if err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) enqueue(c command) (<-chan error, error) {
	if _, ok := l.byID[c.channel]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, c.channel)
	}
	c.reply = make(chan error, 1)
	select {
	case l.commands <- c:
		return c.reply, nil
	default:
		return nil, ErrQueueFull
	}
}

func (l *Loop) drainCommands(now time.Time) {
	for {
		select {
		case c := <-l.commands:
			c.reply <- l.apply(c, now)
		default:
			return
		}
	}
}

func (l *Loop) apply(c command, now time.Time) error {
	slot := l.byID[c.channel]
	switch c.kind {
	case cmdSetTarget:
		prev := slot.ctl.State()
		changed, err := slot.ctl.SetTarget(c.target, now)
		if err != nil {
			return err
		}
		if c.target != prev.TargetTempC {
			// the runaway window only covers samples taken under this target
			slot.rt.Window.Reset()
		}
		slot.rt.TargetTempC = c.target
		l.emit(l.event(now, c.channel, models.EventTargetSet,
			fmt.Sprintf("%s target %.1f°C", c.channel, c.target),
			map[string]any{"target_c": c.target}))
		if changed {
			l.phaseChanged(slot, prev.Phase, now)
		}
		return nil
	case cmdAcknowledge:
		st := slot.ctl.State()
		if st.Phase != models.PhaseFault {
			return nil
		}
		if err := slot.ctl.Acknowledge(now); err != nil {
			return err
		}
		slot.rt.Reset()
		slot.rt.TargetTempC = 0
		l.monitor.Reset(c.channel)
		l.emit(l.event(now, c.channel, models.EventAcknowledge,
			fmt.Sprintf("%s fault %s acknowledged", c.channel, st.FaultReason),
			map[string]any{"reason": st.FaultReason}))
		return nil
	}
	return fmt.Errorf("unknown command %d", c.kind)
}

func (l *Loop) event(now time.Time, id models.ChannelID, typ, desc string, meta any) models.HeaterEvent {
	return models.HeaterEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Channel:     id,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
}

// emit hands an event to the recorder without blocking. Faults that do not
// fit are kept and retried on the next tick; other events are dropped.
func (l *Loop) emit(ev models.HeaterEvent) {
	select {
	case l.events <- ev:
		return
	default:
	}
	if ev.Type == models.EventFault {
		l.pending = append(l.pending, ev)
		return
	}
	l.obs.EventDropped()
}

func (l *Loop) flushPending() {
	for len(l.pending) > 0 {
		select {
		case l.events <- l.pending[0]:
			l.pending = l.pending[1:]
		default:
			return
		}
	}
}

// drainPending waits up to d for the recorder to take the faults still
// held back.
func (l *Loop) drainPending(d time.Duration) {
	if len(l.pending) == 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for len(l.pending) > 0 {
		select {
		case l.events <- l.pending[0]:
			l.pending = l.pending[1:]
		case <-timer.C:
			l.log.Errorw("fault_events_lost", "count", len(l.pending))
			return
		}
	}
}

// Events is the outgoing event stream. It is never closed.
func (l *Loop) Events() <-chan models.HeaterEvent { return l.events }

func (l *Loop) publish() {
	states := make([]models.HeaterState, len(l.heaters))
	for i, slot := range l.heaters {
		states[i] = slot.ctl.State()
		l.obs.ObserveHeater(states[i])
	}
	l.mu.Lock()
	l.snapshot = states
	l.mu.Unlock()
}

// Snapshot returns a copy of every heater state as of the last tick.
func (l *Loop) Snapshot() []models.HeaterState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.HeaterState, len(l.snapshot))
	copy(out, l.snapshot)
	return out
}

// Heater returns one heater state as of the last tick.
func (l *Loop) Heater(id models.ChannelID) (models.HeaterState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, st := range l.snapshot {
		if st.Channel == id {
			return st, true
		}
	}
	return models.HeaterState{}, false
}

// Channels lists the heaters the loop drives.
func (l *Loop) Channels() []models.HeaterChannel {
	out := make([]models.HeaterChannel, len(l.heaters))
	for i, slot := range l.heaters {
		out[i] = slot.ch
	}
	return out
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.stopped }

func (l *Loop) shutdown() {
	for _, slot := range l.heaters {
		if err := slot.ctl.HoldOff(); err != nil {
			l.log.Errorw("heater_off_failed", "channel", slot.ch.ID, "err", err)
		}
	}
	l.drainPending(shutdownFlush)
	l.publish()
}

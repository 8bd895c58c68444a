package service

import (
	"context"
	"sync"
	"time"

	"thermal_guard/internal/logger"
	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
)

const (
	subscriberBuffer  = 16
	recordWriteBudget = 2 * time.Second
)

// Recorder consumes the control loop's events off the hot path: it
// persists and logs them, fans them out to subscribers and saves heater
// snapshots periodically.
type Recorder struct {
	events    <-chan models.HeaterEvent
	snapshot  func() []models.HeaterState
	stateRepo repository.StateRepo
	eventRepo repository.EventRepo
	every     time.Duration
	log       *logger.Logger

	mu   sync.Mutex
	subs map[int]chan models.HeaterEvent
	next int
}

func NewRecorder(events <-chan models.HeaterEvent, snapshot func() []models.HeaterState, repos *repository.Repository, every time.Duration, log *logger.Logger) *Recorder {
	return &Recorder{
		events:    events,
		snapshot:  snapshot,
		stateRepo: repos.StateRepo,
		eventRepo: repos.EventRepo,
		every:     every,
		log:       log,
		subs:      make(map[int]chan models.HeaterEvent),
	}
}

// Run records until ctx is cancelled, then drains buffered events and
// saves a last snapshot. Cancel it after the loop stopped so the final
// heaters-off state is kept.
func (r *Recorder) Run(ctx context.Context) {
	t := time.NewTicker(r.every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.drain()
			r.saveSnapshot()
			r.closeSubscribers()
			return
		case ev := <-r.events:
			r.record(ev)
		case <-t.C:
			r.saveSnapshot()
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.events:
			r.record(ev)
		default:
			return
		}
	}
}

func (r *Recorder) record(ev models.HeaterEvent) {
	switch ev.Type {
	case models.EventFault:
		r.log.Errorw("heater_fault", "channel", ev.Channel, "description", ev.Description, "meta", ev.Metadata)
	case models.EventSensorError, models.EventOutputError:
		r.log.Warnw("heater_io_error", "channel", ev.Channel, "type", ev.Type, "description", ev.Description)
	case models.EventPhaseChange:
		r.log.Debugw("heater_phase", "channel", ev.Channel, "description", ev.Description)
	default:
		r.log.Infow("heater_event", "channel", ev.Channel, "type", ev.Type, "description", ev.Description)
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordWriteBudget)
	defer cancel()
	if err := r.eventRepo.Append(ctx, ev); err != nil {
		r.log.Errorw("event_persist_failed", "event_id", ev.EventID, "type", ev.Type, "err", err)
	}
	r.broadcast(ev)
}

func (r *Recorder) saveSnapshot() {
	states := r.snapshot()
	if len(states) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordWriteBudget)
	defer cancel()
	if err := r.stateRepo.Save(ctx, states); err != nil {
		r.log.Errorw("state_persist_failed", "err", err)
	}
}

// Subscribe returns a live event feed. Slow subscribers miss events
// rather than stall the recorder. Call the returned func to unsubscribe.
func (r *Recorder) Subscribe() (<-chan models.HeaterEvent, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.next
	r.next++
	ch := make(chan models.HeaterEvent, subscriberBuffer)
	if r.subs == nil {
		close(ch)
		return ch, func() {}
	}
	r.subs[id] = ch
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
}

func (r *Recorder) broadcast(ev models.HeaterEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *Recorder) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
	r.subs = nil
}

// ReportPrevious logs heaters that were faulted when the service last
// stopped. Heaters always start IDLE; the operator should inspect them.
func (r *Recorder) ReportPrevious(ctx context.Context) error {
	states, err := r.stateRepo.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, st := range states {
		if st.Fault {
			r.log.Warnw("heater_faulted_before_restart",
				"channel", st.Channel,
				"reason", st.FaultReason,
				"message", st.FaultMessage,
				"at", st.UpdatedAt)
		}
	}
	return nil
}

package service

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"thermal_guard/internal/logger"
	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
)

type recorderHarness struct {
	events chan models.HeaterEvent
	states *fakeStateRepo
	log    *fakeEventRepo
	rec    *Recorder
	cancel context.CancelFunc
	done   chan struct{}
}

func startRecorder(t *testing.T, every time.Duration, snapshot []models.HeaterState) *recorderHarness {
	t.Helper()
	h := &recorderHarness{
		events: make(chan models.HeaterEvent, 8),
		states: &fakeStateRepo{},
		log:    &fakeEventRepo{},
		done:   make(chan struct{}),
	}
	repos := &repository.Repository{StateRepo: h.states, EventRepo: h.log}
	h.rec = NewRecorder(h.events, func() []models.HeaterState { return snapshot }, repos, every, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		h.rec.Run(ctx)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *recorderHarness) stop() {
	h.cancel()
	<-h.done
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRecorder_PersistsAndBroadcasts(t *testing.T) {
	h := startRecorder(t, time.Hour, nil)
	feed, unsubscribe := h.rec.Subscribe()
	defer unsubscribe()

	h.events <- models.HeaterEvent{EventID: "1", Channel: models.ChannelBed, Type: models.EventTargetSet}
	h.events <- models.HeaterEvent{EventID: "2", Channel: models.ChannelBed, Type: models.EventFault}

	for _, want := range []string{"1", "2"} {
		select {
		case ev := <-feed:
			if ev.EventID != want {
				t.Fatalf("expected event %s, got %s", want, ev.EventID)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("event %s not broadcast", want)
		}
	}
	eventually(t, func() bool { return len(h.log.appendedTypes()) == 2 })
	if got := h.log.appendedTypes(); !slices.Equal(got, []string{models.EventTargetSet, models.EventFault}) {
		t.Fatalf("unexpected persisted events: %v", got)
	}
}

func TestRecorder_SavesSnapshots(t *testing.T) {
	snap := []models.HeaterState{{Channel: models.ChannelBed, Phase: models.PhaseIdle}}
	h := startRecorder(t, 10*time.Millisecond, snap)

	eventually(t, func() bool { return h.states.saves() >= 2 })
}

func TestRecorder_StopDrainsAndClosesSubscribers(t *testing.T) {
	snap := []models.HeaterState{{Channel: models.ChannelBed, Phase: models.PhaseIdle}}
	h := startRecorder(t, time.Hour, snap)
	feed, unsubscribe := h.rec.Subscribe()

	h.stop()
	if h.states.saves() != 1 {
		t.Fatalf("expected a final snapshot on stop, got %d saves", h.states.saves())
	}
	for range feed {
	}
	unsubscribe()

	late, _ := h.rec.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription after stop must be closed")
	}
}

func TestRecorder_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := startRecorder(t, time.Hour, nil)
	_, unsubscribe := h.rec.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < subscriberBuffer*3; i++ {
			h.events <- models.HeaterEvent{Channel: models.ChannelBed, Type: models.EventPhaseChange}
		}
	}()
	wg.Wait()
	eventually(t, func() bool { return len(h.log.appendedTypes()) == subscriberBuffer*3 })
}

func TestRecorder_ReportPrevious(t *testing.T) {
	states := &fakeStateRepo{stored: []models.HeaterState{
		{Channel: models.ChannelBed, Fault: true, FaultReason: models.VerdictRunaway},
	}}
	rec := NewRecorder(nil, nil, &repository.Repository{StateRepo: states, EventRepo: &fakeEventRepo{}}, time.Second, logger.Nop())
	if err := rec.ReportPrevious(context.Background()); err != nil {
		t.Fatalf("ReportPrevious: %v", err)
	}
}

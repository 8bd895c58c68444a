package service

import (
	"context"
	"errors"
	"testing"

	"thermal_guard/internal/models"
	"thermal_guard/internal/thermal"
)

func TestMonitoringService_LiveSnapshot(t *testing.T) {
	loop := &fakeLoop{states: []models.HeaterState{
		{Channel: models.ChannelBed, Phase: models.PhaseHeating, CurrentTempC: 40},
		{Channel: models.HotendChannel(0), Phase: models.PhaseIdle, CurrentTempC: 22},
	}}
	repo := &fakeStateRepo{stored: []models.HeaterState{{Channel: models.ChannelBed, Phase: models.PhaseFault}}}
	svc := NewMonitoringService(loop, repo)

	states, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 2 || states[0].Phase != models.PhaseHeating {
		t.Fatalf("expected live states, got %+v", states)
	}

	st, err := svc.Get(context.Background(), "hotend_0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.CurrentTempC != 22 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestMonitoringService_FallsBackToRepo(t *testing.T) {
	repo := &fakeStateRepo{stored: []models.HeaterState{
		{Channel: models.ChannelBed, Phase: models.PhaseFault, Fault: true, FaultReason: models.VerdictRunaway},
	}}
	svc := NewMonitoringService(&fakeLoop{}, repo)

	states, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 1 || states[0].FaultReason != models.VerdictRunaway {
		t.Fatalf("expected persisted states, got %+v", states)
	}

	st, err := svc.Get(context.Background(), "bed")
	if err != nil || st.Phase != models.PhaseFault {
		t.Fatalf("Get(bed) = %+v, %v", st, err)
	}
	if _, err := svc.Get(context.Background(), "hotend_3"); !errors.Is(err, thermal.ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
}

func TestMonitoringService_RepoError(t *testing.T) {
	svc := NewMonitoringService(&fakeLoop{}, &fakeStateRepo{err: errors.New("db down")})

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("expected repo error")
	}
	if _, err := svc.Get(context.Background(), "bed"); err == nil {
		t.Fatalf("expected repo error")
	}
}

package service

import (
	"context"
	"fmt"

	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
	"thermal_guard/internal/thermal"
)

type MonitoringService struct {
	loop      ControlLoop
	stateRepo repository.StateRepo
}

func NewMonitoringService(loop ControlLoop, stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{loop: loop, stateRepo: stateRepo}
}

// List returns the live snapshot. Before the first tick it falls back to
// the last persisted states.
func (s *MonitoringService) List(ctx context.Context) ([]models.HeaterState, error) {
	if states := s.loop.Snapshot(); len(states) > 0 {
		return states, nil
	}
	return s.stateRepo.LoadAll(ctx)
}

func (s *MonitoringService) Get(ctx context.Context, channel string) (models.HeaterState, error) {
	id, err := parseChannel(channel)
	if err != nil {
		return models.HeaterState{}, err
	}
	if st, ok := s.loop.Heater(id); ok {
		return st, nil
	}
	states, err := s.List(ctx)
	if err != nil {
		return models.HeaterState{}, err
	}
	for _, st := range states {
		if st.Channel == id {
			return st, nil
		}
	}
	return models.HeaterState{}, fmt.Errorf("%w: %s", thermal.ErrUnknownChannel, id)
}

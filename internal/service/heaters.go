package service

import (
	"context"
	"fmt"

	"thermal_guard/internal/models"
	"thermal_guard/internal/thermal"
)

type HeaterService struct {
	loop ControlLoop
}

func NewHeaterService(loop ControlLoop) *HeaterService {
	return &HeaterService{loop: loop}
}

// SetTarget returns once the loop applied the change. A target of 0 turns
// the heater off.
func (s *HeaterService) SetTarget(ctx context.Context, channel string, tempC float64) error {
	id, err := parseChannel(channel)
	if err != nil {
		return err
	}
	return s.loop.SetTarget(ctx, id, tempC)
}

// Acknowledge clears a latched fault; the heater returns to IDLE.
func (s *HeaterService) Acknowledge(ctx context.Context, channel string) error {
	id, err := parseChannel(channel)
	if err != nil {
		return err
	}
	return s.loop.Acknowledge(ctx, id)
}

func parseChannel(s string) (models.ChannelID, error) {
	id, ok := models.ParseChannelID(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", thermal.ErrUnknownChannel, s)
	}
	return id, nil
}

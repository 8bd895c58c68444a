package service

import (
	"context"
	"time"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
)

type EndstopService struct {
	in       hal.DigitalInput
	endstops []models.Endstop
	timeout  time.Duration
}

func NewEndstopService(in hal.DigitalInput, endstops []models.Endstop, timeout time.Duration) *EndstopService {
	return &EndstopService{in: in, endstops: endstops, timeout: timeout}
}

// Query reads every enabled endstop. The whole query shares one timeout.
func (s *EndstopService) Query(ctx context.Context) ([]models.EndstopStatus, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return hal.QueryEndstops(ctx, s.in, s.endstops)
}

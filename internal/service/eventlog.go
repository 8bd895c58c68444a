package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: From must be <= To")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeFilter prepares query parameters and validates the time range
// and channel.
func normalizeFilter(f LogFilter) (repository.EventFilter, error) {
	out := repository.EventFilter{
		From: normalizeToUTC(f.From),
		To:   normalizeToUTC(f.To),
		Type: strings.TrimSpace(strings.ToUpper(f.Type)),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return repository.EventFilter{}, ErrInvalidTimeRange
	}
	if ch := strings.TrimSpace(f.Channel); ch != "" {
		id, err := parseChannel(ch)
		if err != nil {
			return repository.EventFilter{}, err
		}
		out.Channel = id
	}
	return out, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error) {
	filter, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter)
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"thermal_guard/internal/models"
	"thermal_guard/internal/thermal"
)

func Test_normalizeToUTC(t *testing.T) {
	t.Parallel()

	if got := normalizeToUTC(time.Time{}); !got.IsZero() {
		t.Fatalf("zero time must stay zero, got %v", got)
	}
	in := time.Date(2025, time.August, 1, 12, 34, 56, 0, time.FixedZone("UTC+3", 3*3600))
	got := normalizeToUTC(in)
	exp := time.Date(2025, time.August, 1, 9, 34, 56, 0, time.UTC)
	if got.Location() != time.UTC || !got.Equal(exp) {
		t.Fatalf("unexpected normalizeToUTC result: %v (loc=%v)", got, got.Location())
	}
}

func TestEventLogService_List_NormalizesFilter(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{events: []models.HeaterEvent{{EventID: "1", Type: models.EventFault}}}
	svc := NewEventLogService(repo)

	from := time.Date(2025, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	to := from.Add(time.Hour)
	got, err := svc.List(context.Background(), LogFilter{From: from, To: to, Type: " fault ", Channel: "hotend_0"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "1" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if repo.got.Type != "FAULT" {
		t.Errorf("type not normalized: %q", repo.got.Type)
	}
	if repo.got.Channel != models.HotendChannel(0) {
		t.Errorf("channel not normalized: %q", repo.got.Channel)
	}
	if repo.got.From.Location() != time.UTC || !repo.got.From.Equal(from) {
		t.Errorf("from not converted to UTC: %v", repo.got.From)
	}
}

func TestEventLogService_List_Rejects(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{}
	svc := NewEventLogService(repo)
	now := time.Now()

	_, err := svc.List(context.Background(), LogFilter{From: now, To: now.Add(-time.Minute)})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	_, err = svc.List(context.Background(), LogFilter{Channel: "chamber"})
	if !errors.Is(err, thermal.ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	if repo.calls != 0 {
		t.Fatalf("repo must not be queried for invalid filters")
	}
}

func TestEventLogService_List_RepoError(t *testing.T) {
	t.Parallel()

	svc := NewEventLogService(&fakeEventRepo{err: errors.New("locked")})
	if _, err := svc.List(context.Background(), LogFilter{}); err == nil {
		t.Fatalf("expected repo error")
	}
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"thermal_guard/internal/models"
)

type Authorization interface {
	Create(username, hash, role string) (int, error)
	GetByUsername(username string) (*models.User, error)
	RecordLogin(id int, at time.Time) error
}

// StateRepo keeps the last snapshot of every heater, one row per channel.
type StateRepo interface {
	Save(ctx context.Context, states []models.HeaterState) error
	LoadAll(ctx context.Context) ([]models.HeaterState, error)
}

// EventFilter narrows EventRepo.List. Zero fields match everything.
type EventFilter struct {
	From    time.Time
	To      time.Time
	Type    string
	Channel models.ChannelID
}

type EventRepo interface {
	Append(ctx context.Context, e models.HeaterEvent) error
	List(ctx context.Context, f EventFilter) ([]models.HeaterEvent, error)
}

type Repository struct {
	StateRepo StateRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo: NewStateSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewOperatorRepository(db),
	}
}

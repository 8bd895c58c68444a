package service

import (
	"context"

	"thermal_guard/internal/config"
	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Heaters forwards operator commands to the control loop. Channel names
// are parsed with models.ParseChannelID.
type Heaters interface {
	SetTarget(ctx context.Context, channel string, tempC float64) error
	Acknowledge(ctx context.Context, channel string) error
}

// Monitoring exposes read-only heater state.
type Monitoring interface {
	List(ctx context.Context) ([]models.HeaterState, error)
	Get(ctx context.Context, channel string) (models.HeaterState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.HeaterEvent, error)
}

// Configuration exposes the firmware registry.
type Configuration interface {
	Snapshot() config.Snapshot
	YAML() ([]byte, error)
	Defines(f config.DefineFilter) []config.Define
}

// Endstops reports switch states.
type Endstops interface {
	Query(ctx context.Context) ([]models.EndstopStatus, error)
}

// Simulation drives the simulated board. Every call fails with
// ErrSimulationDisabled on real hardware.
type Simulation interface {
	InjectFault(channel string, fault string) error
	SetEndstop(name string, triggered bool) error
}

// Stream fans out heater events to live subscribers.
type Stream interface {
	Subscribe() (<-chan models.HeaterEvent, func())
}

// ControlLoop is the part of thermal.Loop the services use.
type ControlLoop interface {
	SetTarget(ctx context.Context, id models.ChannelID, tempC float64) error
	Acknowledge(ctx context.Context, id models.ChannelID) error
	Snapshot() []models.HeaterState
	Heater(id models.ChannelID) (models.HeaterState, bool)
}

// FaultInjector is implemented by hal.Sim.
type FaultInjector interface {
	Inject(pin int, f hal.Fault) error
	SetDigital(pin int, level bool)
}

type Service struct {
	Heaters
	Monitoring
	EventLog
	Configuration
	Endstops
	Simulation
	Stream
	Authorization
}

// Deps are the collaborators NewService wires together. Sim is nil unless
// hal.driver is sim.
type Deps struct {
	Repos    *repository.Repository
	Loop     ControlLoop
	Registry *config.Registry
	Inputs   hal.DigitalInput
	Sim      FaultInjector
	Stream   Stream
}

func NewService(d Deps) *Service {
	auth := d.Registry.App().Auth
	return &Service{
		Heaters:       NewHeaterService(d.Loop),
		Monitoring:    NewMonitoringService(d.Loop, d.Repos.StateRepo),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Configuration: NewConfigService(d.Registry),
		Endstops:      NewEndstopService(d.Inputs, d.Registry.Endstops(), d.Registry.App().Control.SensorBudget),
		Simulation:    NewSimulationService(d.Sim, d.Registry),
		Stream:        d.Stream,
		Authorization: NewAuthService(d.Repos.Auth, []byte(auth.SigningKey), auth.TokenTTL),
	}
}

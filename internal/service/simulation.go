package service

import (
	"errors"
	"fmt"
	"strings"

	"thermal_guard/internal/config"
	"thermal_guard/internal/hal"
	"thermal_guard/internal/thermal"
)

var (
	ErrSimulationDisabled = errors.New("simulation is disabled: hal.driver is not sim")
	ErrUnknownEndstop     = errors.New("unknown endstop")
)

type SimulationService struct {
	sim FaultInjector
	reg *config.Registry
}

// NewSimulationService accepts a nil sim, in which case every call fails
// with ErrSimulationDisabled.
func NewSimulationService(sim FaultInjector, reg *config.Registry) *SimulationService {
	return &SimulationService{sim: sim, reg: reg}
}

// InjectFault breaks (or, with "", repairs) the sensor of a heater.
func (s *SimulationService) InjectFault(channel string, fault string) error {
	if s.sim == nil {
		return ErrSimulationDisabled
	}
	id, err := parseChannel(channel)
	if err != nil {
		return err
	}
	ch, ok := s.reg.Channel(id)
	if !ok {
		return fmt.Errorf("%w: %s", thermal.ErrUnknownChannel, id)
	}
	f, err := hal.ParseFault(strings.ToLower(strings.TrimSpace(fault)))
	if err != nil {
		return err
	}
	return s.sim.Inject(ch.AnalogPin, f)
}

// SetEndstop drives the pin so the endstop reads as triggered or not,
// honouring its inverting flag.
func (s *SimulationService) SetEndstop(name string, triggered bool) error {
	if s.sim == nil {
		return ErrSimulationDisabled
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, es := range s.reg.Endstops() {
		if es.Name == name {
			s.sim.SetDigital(es.Pin, triggered != es.Inverting)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownEndstop, name)
}

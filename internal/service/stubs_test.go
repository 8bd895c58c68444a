package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"thermal_guard/internal/config"
	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
	"thermal_guard/internal/repository"
)

// fakeEventRepo captures appended events and the last List filter.
type fakeEventRepo struct {
	mu       sync.Mutex
	appended []models.HeaterEvent
	got      repository.EventFilter
	events   []models.HeaterEvent
	err      error
	calls    int
}

func (f *fakeEventRepo) Append(_ context.Context, e models.HeaterEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return f.err
}

func (f *fakeEventRepo) List(_ context.Context, filter repository.EventFilter) ([]models.HeaterEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = filter
	return f.events, f.err
}

func (f *fakeEventRepo) appendedTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.appended))
	for i, e := range f.appended {
		out[i] = e.Type
	}
	return out
}

type fakeStateRepo struct {
	mu     sync.Mutex
	saved  [][]models.HeaterState
	stored []models.HeaterState
	err    error
}

func (f *fakeStateRepo) Save(_ context.Context, states []models.HeaterState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, states)
	return f.err
}

func (f *fakeStateRepo) LoadAll(context.Context) ([]models.HeaterState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.err
}

func (f *fakeStateRepo) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// fakeLoop records commands and serves a fixed snapshot.
type fakeLoop struct {
	states  []models.HeaterState
	err     error
	targets map[models.ChannelID]float64
	acks    []models.ChannelID
}

func (l *fakeLoop) SetTarget(_ context.Context, id models.ChannelID, tempC float64) error {
	if l.targets == nil {
		l.targets = map[models.ChannelID]float64{}
	}
	l.targets[id] = tempC
	return l.err
}

func (l *fakeLoop) Acknowledge(_ context.Context, id models.ChannelID) error {
	l.acks = append(l.acks, id)
	return l.err
}

func (l *fakeLoop) Snapshot() []models.HeaterState { return l.states }

func (l *fakeLoop) Heater(id models.ChannelID) (models.HeaterState, bool) {
	for _, st := range l.states {
		if st.Channel == id {
			return st, true
		}
	}
	return models.HeaterState{}, false
}

// fakeInjector stands in for hal.Sim.
type fakeInjector struct {
	faults  map[int]hal.Fault
	digital map[int]bool
}

func newFakeInjector() *fakeInjector {
	return &fakeInjector{faults: map[int]hal.Fault{}, digital: map[int]bool{}}
}

func (f *fakeInjector) Inject(pin int, fault hal.Fault) error {
	f.faults[pin] = fault
	return nil
}

func (f *fakeInjector) SetDigital(pin int, level bool) { f.digital[pin] = level }

const testHeaders = `
#define MACHINE_NAME "Bench rig"
#define TEMP_SENSOR_BED 1
#define BED_MAXTEMP 100
#define TEMP_SENSOR_0 1
#define HEATER_0_MAXTEMP 250
#define THERMAL_PROTECTION_PERIOD 40
#define THERMAL_PROTECTION_HYSTERESIS 4
#define THERMAL_PROTECTION_BED_PERIOD 20
#define THERMAL_PROTECTION_BED_HYSTERESIS 2
#define USE_XMIN_PLUG
#define USE_ZMIN_PLUG
#define X_MIN_ENDSTOP_INVERTING true
//#define Z_SAFE_HOMING
`

func testRegistry(t *testing.T) *config.Registry {
	t.Helper()
	defs, err := config.ParseMarlin(strings.NewReader(testHeaders), "Configuration.h")
	if err != nil {
		t.Fatalf("ParseMarlin: %v", err)
	}
	reg, err := config.NewRegistry(config.App{
		Auth: config.AuthConfig{SigningKey: "k", TokenTTL: time.Hour},
		Control: config.ControlConfig{
			Tick:            100 * time.Millisecond,
			SensorBudget:    50 * time.Millisecond,
			MaxSensorErrors: 3,
			HeatingGainC:    2,
		},
		HAL: config.HALConfig{Driver: config.DriverSim, ADCBits: 10, VRef: 5, PullupOhms: 4700},
	}, defs)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

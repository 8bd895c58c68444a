package hal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"thermal_guard/internal/config"
)

// Encoder turns a temperature into the raw count a sensor would report.
type Encoder interface {
	Raw(tempC float64) float64
}

// Plant wires one simulated heater: its sensor pin, heater pin, heating
// rate at full power and sensor calibration.
type Plant struct {
	AnalogPin int
	PWMPin    int
	RateCPerS float64
	Encoder   Encoder
}

// Fault is an injected hardware failure.
type Fault string

const (
	FaultNone     Fault = ""
	FaultOpen     Fault = "open"     // thermistor disconnected
	FaultShort    Fault = "short"    // thermistor shorted
	FaultStuck    Fault = "stuck"    // reading frozen
	FaultDetached Fault = "detached" // sensor fell off the heater block
	FaultTimeout  Fault = "timeout"  // ADC never answers
)

// ParseFault validates a fault name.
func ParseFault(s string) (Fault, error) {
	switch f := Fault(s); f {
	case FaultNone, FaultOpen, FaultShort, FaultStuck, FaultDetached, FaultTimeout:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFault, s)
}

type plant struct {
	Plant
	tempC    float64
	duty     float64
	last     time.Time
	fault    Fault
	stuckRaw float64
}

// Sim is a first-order thermal model of every heater. Time advances
// lazily from the clock on each access.
type Sim struct {
	mu      sync.Mutex
	cfg     config.SimConfig
	adcMax  float64
	now     func() time.Time
	rng     *rand.Rand
	byPin   map[int]*plant
	byPWM   map[int]*plant
	digital map[int]bool
}

type SimOption func(*Sim)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) SimOption {
	return func(s *Sim) { s.now = now }
}

// WithSeed makes sensor noise reproducible.
func WithSeed(seed uint64) SimOption {
	return func(s *Sim) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func NewSim(cfg config.SimConfig, adcMax float64, plants []Plant, opts ...SimOption) *Sim {
	s := &Sim{
		cfg:     cfg,
		adcMax:  adcMax,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(1, 2)),
		byPin:   make(map[int]*plant, len(plants)),
		byPWM:   make(map[int]*plant, len(plants)),
		digital: make(map[int]bool),
	}
	for _, o := range opts {
		o(s)
	}
	start := s.now()
	for _, p := range plants {
		pl := &plant{Plant: p, tempC: cfg.AmbientC, last: start}
		s.byPin[p.AnalogPin] = pl
		s.byPWM[p.PWMPin] = pl
	}
	return s
}

func (s *Sim) advance(p *plant, now time.Time) {
	dt := now.Sub(p.last).Seconds()
	if dt <= 0 {
		return
	}
	p.last = now
	heat := p.duty * p.RateCPerS
	cool := (p.tempC - s.cfg.AmbientC) * s.cfg.CoolCoeff
	p.tempC += (heat - cool) * dt
}

func (s *Sim) ReadAnalog(ctx context.Context, pin int) (float64, error) {
	s.mu.Lock()
	p, ok := s.byPin[pin]
	if !ok {
		s.mu.Unlock()
		return 0, fmt.Errorf("%w: analog %d", ErrUnknownPin, pin)
	}
	s.advance(p, s.now())
	fault := p.fault
	var raw float64
	switch fault {
	case FaultOpen:
		raw = s.adcMax
	case FaultShort:
		raw = 0
	case FaultStuck:
		raw = p.stuckRaw
	case FaultDetached:
		raw = p.Encoder.Raw(s.cfg.AmbientC)
	default:
		noise := 0.0
		if s.cfg.NoiseC > 0 {
			noise = s.rng.NormFloat64() * s.cfg.NoiseC
		}
		raw = p.Encoder.Raw(p.tempC + noise)
	}
	s.mu.Unlock()

	if fault == FaultTimeout {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return raw, nil
}

func (s *Sim) ReadDigital(_ context.Context, pin int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digital[pin], nil
}

func (s *Sim) SetPWM(pin int, duty float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byPWM[pin]
	if !ok {
		return fmt.Errorf("%w: pwm %d", ErrUnknownPin, pin)
	}
	s.advance(p, s.now())
	p.duty = clampDuty(duty)
	return nil
}

// Inject sets or clears (FaultNone) a fault on the sensor at analog pin.
func (s *Sim) Inject(pin int, f Fault) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byPin[pin]
	if !ok {
		return fmt.Errorf("%w: analog %d", ErrUnknownPin, pin)
	}
	s.advance(p, s.now())
	if f == FaultStuck {
		p.stuckRaw = p.Encoder.Raw(p.tempC)
	}
	p.fault = f
	return nil
}

// SetDigital drives a simulated endstop level.
func (s *Sim) SetDigital(pin int, level bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digital[pin] = level
}

// Temperature is the true plant temperature behind analog pin.
func (s *Sim) Temperature(pin int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byPin[pin]
	if !ok {
		return 0, false
	}
	s.advance(p, s.now())
	return p.tempC, true
}

// Duty is the last duty written to pwm pin.
func (s *Sim) Duty(pin int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byPWM[pin]; ok {
		return p.duty
	}
	return 0
}

func (s *Sim) Close() error { return nil }

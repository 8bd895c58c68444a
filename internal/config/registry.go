package config

import (
	"fmt"
	"strings"
	"time"

	"thermal_guard/internal/models"
)

// Machine identifies the printer.
type Machine struct {
	Name        string `json:"name" yaml:"name"`
	UUID        string `json:"uuid" yaml:"uuid"`
	Motherboard string `json:"motherboard" yaml:"motherboard"`
	Baudrate    int    `json:"baudrate" yaml:"baudrate"`
}

// Registry is the configuration assembled once at startup. Accessors return
// copies; nothing mutates a Registry after NewRegistry.
type Registry struct {
	app      App
	machine  Machine
	defines  map[string]Define
	order    []string
	channels []models.HeaterChannel
	endstops []models.Endstop
}

// Firmware defaults used when a header omits a value.
const (
	defaultBedMinTemp       = 5
	defaultBedMaxTemp       = 150
	defaultHotendMinTemp    = 5
	defaultHotendMaxTemp    = 275
	defaultBedPeriod        = 20
	defaultBedHysteresis    = 2
	defaultHotendPeriod     = 40
	defaultHotendHysteresis = 4
	defaultPWMMax           = 255
	defaultBangBangDelta    = 2.0

	defaultKp    = 22.2
	defaultKi    = 1.08
	defaultKd    = 114.0
	defaultBedKp = 10.0
	defaultBedKi = 0.023
	defaultBedKd = 305.4
)

// NewRegistry merges header defines with the overrides from app and builds
// the heater channels and endstops.
func NewRegistry(app App, defines []Define) (*Registry, error) {
	r := &Registry{
		app:     app,
		defines: make(map[string]Define, len(defines)),
	}
	for _, d := range defines {
		r.put(d)
	}
	for name, raw := range app.Firmware.Overrides {
		r.put(Define{
			Name:    name,
			Value:   parseValue(raw),
			Raw:     raw,
			Enabled: true,
			File:    "config.yml",
		})
	}

	r.machine = Machine{
		Name:        r.str("MACHINE_NAME"),
		UUID:        r.str("MACHINE_UUID"),
		Motherboard: r.str("MOTHERBOARD"),
		Baudrate:    r.intOr("BAUDRATE", 0),
	}

	if err := r.buildChannels(); err != nil {
		return nil, err
	}
	r.buildEndstops()
	return r, nil
}

func (r *Registry) put(d Define) {
	prev, seen := r.defines[d.Name]
	// an enabled define is never replaced by a later commented-out copy
	if seen && prev.Enabled && !d.Enabled {
		return
	}
	if !seen {
		r.order = append(r.order, d.Name)
	}
	r.defines[d.Name] = d
}

func (r *Registry) lookup(name string) (Define, bool) {
	d, ok := r.defines[name]
	if !ok || !d.Enabled {
		return Define{}, false
	}
	return d, true
}

func (r *Registry) str(name string) string {
	d, ok := r.lookup(name)
	if !ok {
		return ""
	}
	return d.String()
}

func (r *Registry) floatOr(name string, def float64) float64 {
	if d, ok := r.lookup(name); ok {
		if f, ok := d.Float(); ok {
			return f
		}
	}
	return def
}

func (r *Registry) intOr(name string, def int) int {
	return int(r.floatOr(name, float64(def)))
}

// flag reports a feature toggle; absent toggles take def.
func (r *Registry) flag(name string, def bool) bool {
	d, ok := r.defines[name]
	if !ok {
		return def
	}
	return d.Bool()
}

func (r *Registry) buildChannels() error {
	if ch, ok, err := r.bedChannel(); err != nil {
		return err
	} else if ok {
		r.channels = append(r.channels, ch)
	}
	for n := 0; n < models.MaxHotends; n++ {
		ch, ok, err := r.hotendChannel(n)
		if err != nil {
			return err
		}
		if ok {
			r.channels = append(r.channels, ch)
		}
	}
	return nil
}

func (r *Registry) bedChannel() (models.HeaterChannel, bool, error) {
	sensor := r.intOr("TEMP_SENSOR_BED", 0)
	if sensor == 0 {
		return models.HeaterChannel{}, false, nil
	}
	ch := models.HeaterChannel{
		ID:                    models.ChannelBed,
		SensorType:            sensor,
		MinTempC:              r.floatOr("BED_MINTEMP", defaultBedMinTemp),
		MaxTempC:              r.floatOr("BED_MAXTEMP", defaultBedMaxTemp),
		ProtectionPeriod:      seconds(r.floatOr("THERMAL_PROTECTION_BED_PERIOD", defaultBedPeriod)),
		ProtectionHysteresisC: r.floatOr("THERMAL_PROTECTION_BED_HYSTERESIS", defaultBedHysteresis),
		ProtectionEnabled:     r.flag("THERMAL_PROTECTION_BED", true),
		HeatingGainC:          r.floatOr("WATCH_BED_TEMP_INCREASE", r.app.Control.HeatingGainC),
		Control: r.control(
			r.flag("PIDTEMPBED", false),
			r.floatOr("DEFAULT_bedKp", defaultBedKp),
			r.floatOr("DEFAULT_bedKi", defaultBedKi),
			r.floatOr("DEFAULT_bedKd", defaultBedKd),
			r.floatOr("MAX_BED_POWER", defaultPWMMax),
		),
	}
	r.assignPins(&ch, 0)
	return ch, true, validateChannel(ch)
}

func (r *Registry) hotendChannel(n int) (models.HeaterChannel, bool, error) {
	sensor := r.intOr(fmt.Sprintf("TEMP_SENSOR_%d", n), 0)
	if sensor == 0 {
		return models.HeaterChannel{}, false, nil
	}
	ch := models.HeaterChannel{
		ID:                    models.HotendChannel(n),
		SensorType:            sensor,
		MinTempC:              r.floatOr(fmt.Sprintf("HEATER_%d_MINTEMP", n), defaultHotendMinTemp),
		MaxTempC:              r.floatOr(fmt.Sprintf("HEATER_%d_MAXTEMP", n), defaultHotendMaxTemp),
		ProtectionPeriod:      seconds(r.floatOr("THERMAL_PROTECTION_PERIOD", defaultHotendPeriod)),
		ProtectionHysteresisC: r.floatOr("THERMAL_PROTECTION_HYSTERESIS", defaultHotendHysteresis),
		ProtectionEnabled:     r.flag("THERMAL_PROTECTION_HOTENDS", true),
		HeatingGainC:          r.floatOr("WATCH_TEMP_INCREASE", r.app.Control.HeatingGainC),
		Control: r.control(
			r.flag("PIDTEMP", false),
			r.floatOr("DEFAULT_Kp", defaultKp),
			r.floatOr("DEFAULT_Ki", defaultKi),
			r.floatOr("DEFAULT_Kd", defaultKd),
			r.floatOr("BANG_MAX", defaultPWMMax),
		),
	}
	r.assignPins(&ch, n+1)
	return ch, true, validateChannel(ch)
}

func (r *Registry) control(pid bool, kp, ki, kd, maxPWM float64) models.ControlSettings {
	maxPower := clamp(maxPWM/defaultPWMMax, 0, 1)
	if !pid {
		return models.ControlSettings{
			Kind:     models.ControlBangBang,
			MaxDelta: defaultBangBangDelta,
			MaxPower: maxPower,
		}
	}
	if pidMax, ok := r.lookup("PID_MAX"); ok {
		if f, ok := pidMax.Float(); ok {
			maxPower = clamp(f/defaultPWMMax, 0, 1)
		}
	}
	return models.ControlSettings{
		Kind:     models.ControlPID,
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		MaxPower: maxPower,
	}
}

// assignPins applies heaters.<ID> from config.yml, otherwise the bed takes
// pin 0 and hotend n takes pin n+1.
func (r *Registry) assignPins(ch *models.HeaterChannel, fallback int) {
	ch.AnalogPin, ch.PWMPin = fallback, fallback
	if pins, ok := r.app.Heaters[string(ch.ID)]; ok {
		ch.AnalogPin, ch.PWMPin = pins.AnalogPin, pins.PWMPin
	}
}

func validateChannel(ch models.HeaterChannel) error {
	switch {
	case ch.MaxTempC <= ch.MinTempC:
		return fmt.Errorf("%w: %s max temp %.1f must exceed min temp %.1f", ErrInvalidChannel, ch.ID, ch.MaxTempC, ch.MinTempC)
	case ch.ProtectionPeriod <= 0:
		return fmt.Errorf("%w: %s protection period must be positive", ErrInvalidChannel, ch.ID)
	case ch.ProtectionHysteresisC <= 0:
		return fmt.Errorf("%w: %s protection hysteresis must be positive", ErrInvalidChannel, ch.ID)
	case ch.HeatingGainC <= 0:
		return fmt.Errorf("%w: %s heating gain must be positive", ErrInvalidChannel, ch.ID)
	}
	return nil
}

var endstopAxes = []string{"X", "Y", "Z"}

func (r *Registry) buildEndstops() {
	idx := 0
	for _, side := range []string{"MIN", "MAX"} {
		for _, axis := range endstopAxes {
			name := strings.ToLower(axis + "_" + side)
			if r.flag("USE_"+axis+side+"_PLUG", false) {
				es := models.Endstop{
					Name:      name,
					Pin:       idx,
					Inverting: r.flag(axis+"_"+side+"_ENDSTOP_INVERTING", false),
				}
				if p, ok := r.app.Endstops[name]; ok {
					es.Pin = p.Pin
				}
				r.endstops = append(r.endstops, es)
			}
			idx++
		}
	}
}

// App returns the service configuration the registry was built with.
func (r *Registry) App() App { return r.app }

// Machine returns the printer identity.
func (r *Registry) Machine() Machine { return r.machine }

// Channels returns every configured heater, bed first.
func (r *Registry) Channels() []models.HeaterChannel {
	out := make([]models.HeaterChannel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Channel looks up one heater.
func (r *Registry) Channel(id models.ChannelID) (models.HeaterChannel, bool) {
	for _, ch := range r.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.HeaterChannel{}, false
}

// Endstops returns the enabled limit switches.
func (r *Registry) Endstops() []models.Endstop {
	out := make([]models.Endstop, len(r.endstops))
	copy(out, r.endstops)
	return out
}

// Define returns a define by name, including commented-out ones.
func (r *Registry) Define(name string) (Define, bool) {
	d, ok := r.defines[name]
	return d, ok
}

// Defines returns every define in first-seen order.
func (r *Registry) Defines() []Define {
	out := make([]Define, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defines[name])
	}
	return out
}

// Snapshot is the exportable view of a Registry.
type Snapshot struct {
	Machine  Machine                `json:"machine" yaml:"machine"`
	Channels []models.HeaterChannel `json:"channels" yaml:"channels"`
	Endstops []models.Endstop       `json:"endstops" yaml:"endstops"`
	Enabled  map[string]any         `json:"enabled_defines" yaml:"enabled_defines"`
}

// Snapshot collects the registry for export. Disabled defines are left out.
func (r *Registry) Snapshot() Snapshot {
	enabled := make(map[string]any)
	for name, d := range r.defines {
		if d.Enabled {
			enabled[name] = d.Value
		}
	}
	return Snapshot{
		Machine:  r.machine,
		Channels: r.Channels(),
		Endstops: r.Endstops(),
		Enabled:  enabled,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

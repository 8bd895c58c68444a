package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// App is the service configuration read from configs/config.yml, THERMAL_*
// environment variables and defaults.
type App struct {
	Port     string                 `mapstructure:"port" yaml:"port"`
	DB       DBConfig               `mapstructure:"db" yaml:"db"`
	Log      LogConfig              `mapstructure:"log" yaml:"log"`
	Auth     AuthConfig             `mapstructure:"auth" yaml:"-"`
	Control  ControlConfig          `mapstructure:"control" yaml:"control"`
	Firmware FirmwareConfig         `mapstructure:"firmware" yaml:"firmware"`
	HAL      HALConfig              `mapstructure:"hal" yaml:"hal"`
	Heaters  map[string]HeaterPins  `mapstructure:"heaters" yaml:"heaters,omitempty"`
	Endstops map[string]EndstopPins `mapstructure:"endstops" yaml:"endstops,omitempty"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// ControlConfig tunes the control loop.
type ControlConfig struct {
	Tick            time.Duration `mapstructure:"tick" yaml:"tick"`
	SensorBudget    time.Duration `mapstructure:"sensor_budget" yaml:"sensor_budget"`
	MaxSensorErrors int           `mapstructure:"max_sensor_errors" yaml:"max_sensor_errors"`
	HeatingGainC    float64       `mapstructure:"heating_gain" yaml:"heating_gain"`
	SnapshotEvery   time.Duration `mapstructure:"snapshot_every" yaml:"snapshot_every"`
}

type FirmwareConfig struct {
	Headers   []string          `mapstructure:"headers" yaml:"headers"`
	Overrides map[string]string `mapstructure:"overrides" yaml:"overrides,omitempty"`
}

type HALConfig struct {
	Driver     string       `mapstructure:"driver" yaml:"driver"` // sim | serial | opcua
	ADCBits    int          `mapstructure:"adc_bits" yaml:"adc_bits"`
	VRef       float64      `mapstructure:"vref" yaml:"vref"`
	PullupOhms float64      `mapstructure:"pullup_ohms" yaml:"pullup_ohms"`
	Serial     SerialConfig `mapstructure:"serial" yaml:"serial"`
	OPCUA      OPCUAConfig  `mapstructure:"opcua" yaml:"opcua"`
	Sim        SimConfig    `mapstructure:"sim" yaml:"sim"`
}

type SerialConfig struct {
	Port  string        `mapstructure:"port" yaml:"port"`
	Baud  int           `mapstructure:"baud" yaml:"baud"`
	Stale time.Duration `mapstructure:"stale" yaml:"stale"`
}

type OPCUAConfig struct {
	Endpoint       string            `mapstructure:"endpoint" yaml:"endpoint"`
	SecurityPolicy string            `mapstructure:"security_policy" yaml:"security_policy"`
	SecurityMode   string            `mapstructure:"security_mode" yaml:"security_mode"`
	Username       string            `mapstructure:"username" yaml:"-"`
	Password       string            `mapstructure:"password" yaml:"-"`
	Interval       time.Duration     `mapstructure:"interval" yaml:"interval"`
	Stale          time.Duration     `mapstructure:"stale" yaml:"stale"`
	Analog         map[string]string `mapstructure:"analog" yaml:"analog"`   // pin -> node id
	Digital        map[string]string `mapstructure:"digital" yaml:"digital"` // pin -> node id
	Outputs        map[string]string `mapstructure:"outputs" yaml:"outputs"` // pwm pin -> node id
}

type SimConfig struct {
	AmbientC   float64 `mapstructure:"ambient_c" yaml:"ambient_c"`
	HotendRate float64 `mapstructure:"hotend_rate" yaml:"hotend_rate"` // °C/s at full power
	BedRate    float64 `mapstructure:"bed_rate" yaml:"bed_rate"`
	CoolCoeff  float64 `mapstructure:"cool_coeff" yaml:"cool_coeff"` // 1/s
	NoiseC     float64 `mapstructure:"noise_c" yaml:"noise_c"`
}

type HeaterPins struct {
	AnalogPin int `mapstructure:"analog_pin" yaml:"analog_pin"`
	PWMPin    int `mapstructure:"pwm_pin" yaml:"pwm_pin"`
}

type EndstopPins struct {
	Pin int `mapstructure:"pin" yaml:"pin"`
}

// Drivers accepted by hal.driver.
const (
	DriverSim    = "sim"
	DriverSerial = "serial"
	DriverOPCUA  = "opcua"
)

const envPrefix = "THERMAL"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "thermal.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("control.tick", 100*time.Millisecond)
	v.SetDefault("control.sensor_budget", 50*time.Millisecond)
	v.SetDefault("control.max_sensor_errors", 3)
	v.SetDefault("control.heating_gain", 2.0)
	v.SetDefault("control.snapshot_every", time.Second)
	v.SetDefault("firmware.headers", []string{"configs/Configuration.h", "configs/Configuration_adv.h"})
	v.SetDefault("hal.driver", DriverSim)
	v.SetDefault("hal.adc_bits", 10)
	v.SetDefault("hal.vref", 5.0)
	v.SetDefault("hal.pullup_ohms", 4700.0)
	v.SetDefault("hal.serial.baud", 250000)
	v.SetDefault("hal.serial.stale", 500*time.Millisecond)
	v.SetDefault("hal.opcua.security_policy", "None")
	v.SetDefault("hal.opcua.security_mode", "None")
	v.SetDefault("hal.opcua.interval", 100*time.Millisecond)
	v.SetDefault("hal.opcua.stale", 2*time.Second)
	v.SetDefault("hal.sim.ambient_c", 22.0)
	v.SetDefault("hal.sim.hotend_rate", 6.0)
	v.SetDefault("hal.sim.bed_rate", 1.2)
	v.SetDefault("hal.sim.cool_coeff", 0.01)
	v.SetDefault("hal.sim.noise_c", 0.1)
}

// Load reads the configuration. An empty path searches configs/config.yml;
// a missing file in the search path leaves defaults in place.
func Load(path string) (App, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return App{}, fmt.Errorf("read config: %w", err)
		}
	}

	var app App
	if err := v.Unmarshal(&app); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	app.normalize()
	if err := app.Validate(); err != nil {
		return App{}, err
	}
	return app, nil
}

// viper lower-cases map keys; heater ids and define names are upper-case.
func (a *App) normalize() {
	a.Heaters = upperKeys(a.Heaters)
	a.Firmware.Overrides = upperKeys(a.Firmware.Overrides)
	a.HAL.Driver = strings.ToLower(strings.TrimSpace(a.HAL.Driver))
}

func upperKeys[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Validate checks values the rest of the service relies on.
func (a App) Validate() error {
	switch {
	case a.Control.Tick <= 0:
		return fmt.Errorf("%w: control.tick must be positive", ErrInvalidConfig)
	case a.Control.SensorBudget <= 0 || a.Control.SensorBudget > a.Control.Tick:
		return fmt.Errorf("%w: control.sensor_budget must be in (0, control.tick]", ErrInvalidConfig)
	case a.Control.MaxSensorErrors < 0:
		return fmt.Errorf("%w: control.max_sensor_errors must not be negative", ErrInvalidConfig)
	case a.Control.HeatingGainC <= 0:
		return fmt.Errorf("%w: control.heating_gain must be positive", ErrInvalidConfig)
	case a.HAL.ADCBits < 8 || a.HAL.ADCBits > 24:
		return fmt.Errorf("%w: hal.adc_bits %d out of range", ErrInvalidConfig, a.HAL.ADCBits)
	case a.HAL.VRef <= 0 || a.HAL.PullupOhms <= 0:
		return fmt.Errorf("%w: hal.vref and hal.pullup_ohms must be positive", ErrInvalidConfig)
	}
	switch a.HAL.Driver {
	case DriverSim, DriverSerial, DriverOPCUA:
	default:
		return fmt.Errorf("%w: unknown hal.driver %q", ErrInvalidConfig, a.HAL.Driver)
	}
	return nil
}

// ADCMax is the full-scale raw reading.
func (h HALConfig) ADCMax() float64 {
	return float64(int64(1)<<h.ADCBits - 1)
}

package thermal

import (
	"fmt"
	"math"
)

// Converter turns raw ADC counts into °C and back. Raw is used by the
// simulator to synthesise readings.
type Converter interface {
	Celsius(raw float64) (float64, error)
	Raw(tempC float64) float64
}

// ADCSpec describes the analog front end.
type ADCSpec struct {
	Max        float64 // full-scale count, e.g. 1023
	VRef       float64 // volts at full scale
	PullupOhms float64 // thermistor divider pullup
}

// Marlin TEMP_SENSOR_* ids understood by NewConverter.
const (
	SensorAD595       = -1
	SensorAD8495      = -4
	SensorEPCOS100k   = 1
	SensorATC100k     = 5
	SensorGeneric3950 = 11
	SensorHotend3950  = 13
	SensorDummy25     = 998
	SensorDummy100    = 999
)

type thermistor struct {
	r25  float64
	beta float64
}

var thermistors = map[int]thermistor{
	SensorEPCOS100k:   {r25: 100000, beta: 4092},
	SensorATC100k:     {r25: 100000, beta: 4267},
	SensorGeneric3950: {r25: 100000, beta: 3950},
	SensorHotend3950:  {r25: 100000, beta: 3950},
}

const (
	kelvinOffset = 273.15
	tableMinC    = -20.0
	tableMaxC    = 350.0
	tableStepC   = 5.0

	// readings this close to either rail are an open or shorted sensor
	railMargin = 0.005

	ad595VoltsPerC    = 0.010
	ad8495VoltsPerC   = 0.005
	ad8495OffsetVolts = 1.25
	dummyRawFraction  = 0.5
	dummyAmbientC     = 25.0
	dummyHotC         = 100.0
)

// NewConverter returns the calibration for a Marlin sensor type id.
func NewConverter(sensorType int, adc ADCSpec) (Converter, error) {
	if adc.Max <= 0 {
		return nil, fmt.Errorf("%w: adc full scale must be positive", ErrUnsupportedSensor)
	}
	if th, ok := thermistors[sensorType]; ok {
		return newThermistorConverter(th, adc)
	}
	switch sensorType {
	case SensorAD595:
		return &amplifierConverter{adc: adc, voltsPerC: ad595VoltsPerC}, nil
	case SensorAD8495:
		return &amplifierConverter{adc: adc, voltsPerC: ad8495VoltsPerC, offsetVolts: ad8495OffsetVolts}, nil
	case SensorDummy25:
		return fixedConverter{tempC: dummyAmbientC, raw: adc.Max * dummyRawFraction}, nil
	case SensorDummy100:
		return fixedConverter{tempC: dummyHotC, raw: adc.Max * dummyRawFraction}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnsupportedSensor, sensorType)
}

// thermistorConverter reads an NTC thermistor on the low side of a pullup
// divider. The table is built from the beta equation at fixed steps.
type thermistorConverter struct {
	toC   *linearTable
	toRaw *linearTable
	low   float64
	high  float64
	max   float64
}

func newThermistorConverter(th thermistor, adc ADCSpec) (*thermistorConverter, error) {
	if adc.PullupOhms <= 0 {
		return nil, fmt.Errorf("%w: thermistor needs a pullup", ErrUnsupportedSensor)
	}
	var pts []point
	for c := tableMinC; c <= tableMaxC; c += tableStepC {
		r := th.r25 * math.Exp(th.beta*(1/(c+kelvinOffset)-1/(25+kelvinOffset)))
		raw := adc.Max * r / (r + adc.PullupOhms)
		pts = append(pts, point{key: raw, value: c})
	}
	toC, err := newLinearTable(pts)
	if err != nil {
		return nil, err
	}
	toRaw, err := toC.inverse()
	if err != nil {
		return nil, err
	}
	return &thermistorConverter{
		toC:   toC,
		toRaw: toRaw,
		low:   adc.Max * railMargin,
		high:  adc.Max * (1 - railMargin),
		max:   adc.Max,
	}, nil
}

func (c *thermistorConverter) Celsius(raw float64) (float64, error) {
	switch {
	case raw < 0 || raw > c.max || math.IsNaN(raw):
		return 0, &SensorError{Kind: SensorOutOfTable, Raw: raw}
	case raw >= c.high:
		return 0, &SensorError{Kind: SensorOpen, Raw: raw}
	case raw <= c.low:
		return 0, &SensorError{Kind: SensorShort, Raw: raw}
	}
	return c.toC.at(raw), nil
}

func (c *thermistorConverter) Raw(tempC float64) float64 {
	return clamp(c.toRaw.at(tempC), 0, c.max)
}

// amplifierConverter covers thermocouple amplifiers with a linear output.
type amplifierConverter struct {
	adc         ADCSpec
	voltsPerC   float64
	offsetVolts float64
}

func (c *amplifierConverter) Celsius(raw float64) (float64, error) {
	switch {
	case raw < 0 || raw > c.adc.Max || math.IsNaN(raw):
		return 0, &SensorError{Kind: SensorOutOfTable, Raw: raw}
	case raw >= c.adc.Max*(1-railMargin):
		return 0, &SensorError{Kind: SensorOpen, Raw: raw}
	case raw <= c.adc.Max*railMargin:
		return 0, &SensorError{Kind: SensorShort, Raw: raw}
	}
	volts := raw / c.adc.Max * c.adc.VRef
	return (volts - c.offsetVolts) / c.voltsPerC, nil
}

func (c *amplifierConverter) Raw(tempC float64) float64 {
	volts := tempC*c.voltsPerC + c.offsetVolts
	return clamp(volts/c.adc.VRef*c.adc.Max, 0, c.adc.Max)
}

type fixedConverter struct {
	tempC float64
	raw   float64
}

func (c fixedConverter) Celsius(float64) (float64, error) { return c.tempC, nil }
func (c fixedConverter) Raw(float64) float64              { return c.raw }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package thermal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
)

// SensorReader samples heater sensors through an AnalogInput. It keeps no
// mutable state and may be shared.
type SensorReader struct {
	input      hal.AnalogInput
	converters map[models.ChannelID]Converter
}

// NewSensorReader selects a converter for every channel.
func NewSensorReader(channels []models.HeaterChannel, input hal.AnalogInput, adc ADCSpec) (*SensorReader, error) {
	r := &SensorReader{
		input:      input,
		converters: make(map[models.ChannelID]Converter, len(channels)),
	}
	for _, ch := range channels {
		conv, err := NewConverter(ch.SensorType, adc)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.ID, err)
		}
		r.converters[ch.ID] = conv
	}
	return r, nil
}

// Converter returns the calibration used for a channel.
func (r *SensorReader) Converter(id models.ChannelID) (Converter, bool) {
	c, ok := r.converters[id]
	return c, ok
}

// Sample reads ch and stamps the result with at. The read is bounded by
// ctx; a missed deadline is a SensorTimeout.
func (r *SensorReader) Sample(ctx context.Context, ch models.HeaterChannel, at time.Time) (models.ThermalSample, error) {
	conv, ok := r.converters[ch.ID]
	if !ok {
		return models.ThermalSample{}, fmt.Errorf("%w: %s", ErrUnknownChannel, ch.ID)
	}
	raw, err := r.input.ReadAnalog(ctx, ch.AnalogPin)
	if err != nil {
		kind := SensorRead
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, hal.ErrStaleReading) {
			kind = SensorTimeout
		}
		return models.ThermalSample{}, &SensorError{Channel: ch.ID, Kind: kind, Err: err}
	}
	tempC, err := conv.Celsius(raw)
	if err != nil {
		var se *SensorError
		if errors.As(err, &se) {
			se.Channel = ch.ID
			return models.ThermalSample{}, se
		}
		return models.ThermalSample{}, &SensorError{Channel: ch.ID, Kind: SensorRead, Raw: raw, Err: err}
	}
	return models.ThermalSample{
		Channel: ch.ID,
		Raw:     raw,
		TempC:   tempC,
		At:      at,
	}, nil
}

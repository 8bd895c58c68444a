package thermal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermal_guard/internal/hal"
	"thermal_guard/internal/models"
)

func TestSensorReader_Sample(t *testing.T) {
	board := newFakeBoard()
	board.setTemp(0, 64)
	r, err := NewSensorReader([]models.HeaterChannel{bedChannel()}, board, testADC)
	require.NoError(t, err)

	s, err := r.Sample(context.Background(), bedChannel(), t0)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelBed, s.Channel)
	assert.InDelta(t, 64, s.TempC, 0.01)
	assert.Equal(t, t0, s.At)
	assert.Greater(t, s.Raw, 0.0)
}

func TestSensorReader_ErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hang bool
		want SensorErrorKind
	}{
		{"read failure", errors.New("i2c nack"), false, SensorRead},
		{"stale", fmt.Errorf("%w: pin 0", hal.ErrStaleReading), false, SensorTimeout},
		{"not reported yet", fmt.Errorf("analog 0: %w", hal.ErrNoReading), false, SensorRead},
		{"deadline", nil, true, SensorTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := newFakeBoard()
			board.setErr(0, tt.err)
			board.setHang(0, tt.hang)
			r, err := NewSensorReader([]models.HeaterChannel{bedChannel()}, board, testADC)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
			defer cancel()
			_, err = r.Sample(ctx, bedChannel(), t0)
			var se *SensorError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.want, se.Kind)
			assert.Equal(t, models.ChannelBed, se.Channel)
		})
	}
}

func TestSensorReader_UnsupportedSensor(t *testing.T) {
	ch := bedChannel()
	ch.SensorType = 7
	_, err := NewSensorReader([]models.HeaterChannel{ch}, newFakeBoard(), testADC)
	assert.ErrorIs(t, err, ErrUnsupportedSensor)
}

package thermal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThermistorRoundTrip(t *testing.T) {
	for _, typ := range []int{SensorEPCOS100k, SensorATC100k, SensorGeneric3950, SensorHotend3950} {
		conv, err := NewConverter(typ, testADC)
		require.NoError(t, err)
		for _, c := range []float64{20, 60, 80, 200, 250} {
			got, err := conv.Celsius(conv.Raw(c))
			require.NoError(t, err, "type %d at %.0f", typ, c)
			assert.InDelta(t, c, got, 0.01, "type %d", typ)
		}
	}
}

func TestThermistorIsMonotonic(t *testing.T) {
	conv, err := NewConverter(SensorEPCOS100k, testADC)
	require.NoError(t, err)
	// NTC: hotter means lower resistance, lower count
	assert.Greater(t, conv.Raw(25), conv.Raw(100))
	assert.Greater(t, conv.Raw(100), conv.Raw(250))
}

func TestThermistorRails(t *testing.T) {
	conv, err := NewConverter(SensorGeneric3950, testADC)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  float64
		kind SensorErrorKind
	}{
		{"open", 1023, SensorOpen},
		{"near open", 1020, SensorOpen},
		{"short", 0, SensorShort},
		{"near short", 3, SensorShort},
		{"above full scale", 2000, SensorOutOfTable},
		{"negative", -1, SensorOutOfTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := conv.Celsius(tt.raw)
			var se *SensorError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.kind, se.Kind)
		})
	}
}

func TestThermistorExtrapolatesPastTable(t *testing.T) {
	conv, err := NewConverter(SensorGeneric3950, testADC)
	require.NoError(t, err)
	hot := conv.Raw(tableMaxC)
	c, err := conv.Celsius(hot - 5)
	require.NoError(t, err)
	assert.Greater(t, c, tableMaxC)
}

func TestAmplifierConverters(t *testing.T) {
	ad595, err := NewConverter(SensorAD595, testADC)
	require.NoError(t, err)
	c, err := ad595.Celsius(1023.0 / 5 * 2) // 2 V
	require.NoError(t, err)
	assert.InDelta(t, 200.0, c, 1e-9)

	ad8495, err := NewConverter(SensorAD8495, testADC)
	require.NoError(t, err)
	c, err = ad8495.Celsius(ad8495.Raw(180))
	require.NoError(t, err)
	assert.InDelta(t, 180.0, c, 1e-9)
}

func TestDummySensors(t *testing.T) {
	d25, err := NewConverter(SensorDummy25, testADC)
	require.NoError(t, err)
	c, err := d25.Celsius(0)
	require.NoError(t, err)
	assert.Equal(t, 25.0, c)

	d100, err := NewConverter(SensorDummy100, testADC)
	require.NoError(t, err)
	c, err = d100.Celsius(d100.Raw(0))
	require.NoError(t, err)
	assert.Equal(t, 100.0, c)
}

func TestUnsupportedSensor(t *testing.T) {
	_, err := NewConverter(42, testADC)
	assert.ErrorIs(t, err, ErrUnsupportedSensor)
}

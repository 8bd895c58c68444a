package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerFixture = `/**
 * Marlin 3D Printer Firmware
 * #define NOT_A_DEFINE 1
 */
#define MACHINE_NAME "Ender 3 Pro"
#define MOTHERBOARD BOARD_MELZI
#define TEMP_SENSOR_BED 1   // bed thermistor
#define FILAMENT_WIDTH_SENSOR_MEASUREMENT_OFFSET 0.2
#define X_MIN_ENDSTOP_INVERTING true
#define BABYSTEP_INVERT_Z false
#define USE_XMIN_PLUG
//#define MESH_BED_LEVELING
// #define I2C_SLAVE_ADDRESS 0
#define DEFAULT_AXIS_STEPS_PER_UNIT { 80, 80, 400, 93 }
#define TEMP_OFFSET -3
`

func parseFixture(t *testing.T) map[string]Define {
	t.Helper()
	defs, err := ParseMarlin(strings.NewReader(headerFixture), "Configuration.h")
	require.NoError(t, err)
	byName := make(map[string]Define, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	return byName
}

func TestParseMarlin_Values(t *testing.T) {
	defs := parseFixture(t)

	_, inComment := defs["NOT_A_DEFINE"]
	assert.False(t, inComment)

	assert.Equal(t, "Ender 3 Pro", defs["MACHINE_NAME"].Value)
	assert.Equal(t, "BOARD_MELZI", defs["MOTHERBOARD"].Value)
	assert.Equal(t, int64(1), defs["TEMP_SENSOR_BED"].Value)
	assert.Equal(t, "bed thermistor", defs["TEMP_SENSOR_BED"].Description)
	assert.Equal(t, 0.2, defs["FILAMENT_WIDTH_SENSOR_MEASUREMENT_OFFSET"].Value)
	assert.Equal(t, true, defs["X_MIN_ENDSTOP_INVERTING"].Value)
	assert.Equal(t, false, defs["BABYSTEP_INVERT_Z"].Value)
	assert.Equal(t, int64(-3), defs["TEMP_OFFSET"].Value)

	steps, ok := defs["DEFAULT_AXIS_STEPS_PER_UNIT"].Floats()
	require.True(t, ok)
	assert.Equal(t, []float64{80, 80, 400, 93}, steps)
}

func TestParseMarlin_EnabledFlags(t *testing.T) {
	defs := parseFixture(t)

	plug := defs["USE_XMIN_PLUG"]
	assert.True(t, plug.Enabled)
	assert.True(t, plug.Bool())

	mesh := defs["MESH_BED_LEVELING"]
	assert.False(t, mesh.Enabled)
	assert.False(t, mesh.Bool())

	i2c := defs["I2C_SLAVE_ADDRESS"]
	assert.False(t, i2c.Enabled)
	assert.Equal(t, int64(0), i2c.Value)
}

func TestParseMarlin_LineNumbers(t *testing.T) {
	defs := parseFixture(t)
	assert.Equal(t, 5, defs["MACHINE_NAME"].Line)
	assert.Equal(t, "Configuration.h", defs["MACHINE_NAME"].File)
}

func TestDefineAccessors(t *testing.T) {
	tests := []struct {
		name    string
		def     Define
		wantF   float64
		wantOK  bool
		wantOn  bool
		wantStr string
	}{
		{"int", Define{Value: int64(250), Raw: "250", Enabled: true}, 250, true, true, "250"},
		{"float", Define{Value: 0.5, Raw: "0.5", Enabled: true}, 0.5, true, true, "0.5"},
		{"zero", Define{Value: int64(0), Raw: "0", Enabled: true}, 0, true, false, "0"},
		{"string", Define{Value: "M600", Raw: `"M600"`, Enabled: true}, 0, false, true, "M600"},
		{"disabled", Define{Value: int64(5), Raw: "5", Enabled: false}, 5, true, false, "5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := tt.def.Float()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantF, f)
			assert.Equal(t, tt.wantOn, tt.def.Bool())
			assert.Equal(t, tt.wantStr, tt.def.String())
		})
	}
}

func TestLoadHeaders_SampleFiles(t *testing.T) {
	defs, err := LoadHeaders([]string{
		"../../configs/Configuration.h",
		"../../configs/Configuration_adv.h",
	})
	require.NoError(t, err)

	reg, err := NewRegistry(testApp(), defs)
	require.NoError(t, err)

	period, ok := reg.Define("THERMAL_PROTECTION_PERIOD")
	require.True(t, ok)
	assert.Equal(t, "Configuration_adv.h", period.File)
	assert.Equal(t, "Ender 3 Pro", reg.Machine().Name)
	assert.Equal(t, "BOARD_MELZI", reg.Machine().Motherboard)
	assert.Equal(t, 115200, reg.Machine().Baudrate)
}

func TestLoadHeaders_Missing(t *testing.T) {
	_, err := LoadHeaders([]string{"does-not-exist.h"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

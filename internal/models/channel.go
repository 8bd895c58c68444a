package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ChannelID names a heater: BED or HOTEND_0 .. HOTEND_7.
type ChannelID string

const (
	ChannelBed   ChannelID = "BED"
	hotendPrefix           = "HOTEND_"
	MaxHotends             = 8
)

// HotendChannel returns the id of hotend n.
func HotendChannel(n int) ChannelID {
	return ChannelID(fmt.Sprintf("%s%d", hotendPrefix, n))
}

// ParseChannelID accepts "bed", "BED", "hotend_0", "0" etc.
func ParseChannelID(s string) (ChannelID, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == string(ChannelBed) {
		return ChannelBed, true
	}
	s = strings.TrimPrefix(s, hotendPrefix)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= MaxHotends {
		return "", false
	}
	return HotendChannel(n), true
}

// IsBed reports whether the channel is the heated bed.
func (id ChannelID) IsBed() bool { return id == ChannelBed }

// ControlKind selects the heater control algorithm.
type ControlKind string

const (
	ControlPID      ControlKind = "PID"
	ControlBangBang ControlKind = "BANG_BANG"
)

// ControlSettings are the actuator parameters of one heater. Gains are in
// the 0..255 firmware scale.
type ControlSettings struct {
	Kind     ControlKind `json:"kind" yaml:"kind"`
	Kp       float64     `json:"kp,omitempty" yaml:"kp,omitempty"`
	Ki       float64     `json:"ki,omitempty" yaml:"ki,omitempty"`
	Kd       float64     `json:"kd,omitempty" yaml:"kd,omitempty"`
	MaxDelta float64     `json:"max_delta,omitempty" yaml:"max_delta,omitempty"`
	MaxPower float64     `json:"max_power" yaml:"max_power"`
}

// HeaterChannel is the static description of one heater, fixed at startup.
type HeaterChannel struct {
	ID                    ChannelID       `json:"id" yaml:"id"`
	SensorType            int             `json:"sensor_type" yaml:"sensor_type"`
	AnalogPin             int             `json:"analog_pin" yaml:"analog_pin"`
	PWMPin                int             `json:"pwm_pin" yaml:"pwm_pin"`
	MinTempC              float64         `json:"min_temp_c" yaml:"min_temp_c"`
	MaxTempC              float64         `json:"max_temp_c" yaml:"max_temp_c"`
	ProtectionPeriod      time.Duration   `json:"protection_period" yaml:"protection_period"`
	ProtectionHysteresisC float64         `json:"protection_hysteresis_c" yaml:"protection_hysteresis_c"`
	ProtectionEnabled     bool            `json:"protection_enabled" yaml:"protection_enabled"`
	HeatingGainC          float64         `json:"heating_gain_c" yaml:"heating_gain_c"`
	Control               ControlSettings `json:"control" yaml:"control"`
}

package models

import "time"

// ThermalSample is one converted sensor reading.
type ThermalSample struct {
	Channel ChannelID `json:"channel"`
	Raw     float64   `json:"raw"`
	TempC   float64   `json:"temp_c"`
	At      time.Time `json:"at"`
}

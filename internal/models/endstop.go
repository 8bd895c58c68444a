package models

// Endstop is a configured limit switch.
type Endstop struct {
	Name      string `json:"name" yaml:"name"` // x_min, z_max, ...
	Pin       int    `json:"pin" yaml:"pin"`
	Inverting bool   `json:"inverting" yaml:"inverting"`
}

// EndstopStatus is the logical state of one endstop.
type EndstopStatus struct {
	Name      string `json:"name"`
	Triggered bool   `json:"triggered"`
}

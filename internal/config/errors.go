package config

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrInvalidChannel = errors.New("invalid heater channel")
)

package service

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"thermal_guard/internal/config"
)

type ConfigService struct {
	reg *config.Registry
}

func NewConfigService(reg *config.Registry) *ConfigService {
	return &ConfigService{reg: reg}
}

func (s *ConfigService) Snapshot() config.Snapshot {
	return s.reg.Snapshot()
}

// YAML renders the snapshot for operators diffing against their headers.
func (s *ConfigService) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s.reg.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

func (s *ConfigService) Defines(f config.DefineFilter) []config.Define {
	return config.FilterDefines(s.reg.Defines(), f)
}

package hal

import (
	"context"
	"fmt"

	"thermal_guard/internal/models"
)

// QueryEndstops reads every endstop. An inverting endstop is triggered
// when its pin reads low.
func QueryEndstops(ctx context.Context, in DigitalInput, endstops []models.Endstop) ([]models.EndstopStatus, error) {
	out := make([]models.EndstopStatus, 0, len(endstops))
	for _, es := range endstops {
		level, err := in.ReadDigital(ctx, es.Pin)
		if err != nil {
			return nil, fmt.Errorf("endstop %s: %w", es.Name, err)
		}
		out = append(out, models.EndstopStatus{
			Name:      es.Name,
			Triggered: level != es.Inverting,
		})
	}
	return out, nil
}

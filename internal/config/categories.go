package config

import (
	"fmt"
	"strings"
)

// Define categories, matched in order by keyword against name and
// description.
var categories = []struct {
	name     string
	keywords []string
}{
	{"machine", []string{"MACHINE", "BOARD", "PRINTER", "BED", "CHAMBER"}},
	{"drivers", []string{"DRIVER", "STEP", "MOTOR", "TMC", "A4988"}},
	{"endstops", []string{"ENDSTOP", "STOP", "LIMIT", "HOME"}},
	{"movement", []string{"MOVE", "TRAVEL", "SPEED", "ACCEL", "JERK"}},
	{"temperature", []string{"TEMP", "THERMAL", "HEAT", "COOL", "FAN"}},
	{"filament", []string{"FILAMENT", "EXTRUDER", "E_STEP", "FLOW"}},
	{"ui", []string{"LCD", "DISPLAY", "UI", "MENU", "BUTTON"}},
	{"advanced", []string{"ADVANCED", "EXPERIMENTAL", "DEBUG", "TEST"}},
}

const categoryOther = "other"

// Category classifies a define for browsing.
func (d Define) Category() string {
	name := strings.ToUpper(d.Name)
	desc := strings.ToUpper(d.Description)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(name, kw) || strings.Contains(desc, kw) {
				return c.name
			}
		}
	}
	return categoryOther
}

// DefineFilter selects defines by category and free text.
type DefineFilter struct {
	Category    string
	Search      string
	EnabledOnly bool
}

// FilterDefines returns the defines matching f, keeping input order.
func FilterDefines(defs []Define, f DefineFilter) []Define {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	cat := strings.ToLower(strings.TrimSpace(f.Category))
	out := make([]Define, 0, len(defs))
	for _, d := range defs {
		if f.EnabledOnly && !d.Enabled {
			continue
		}
		if cat != "" && d.Category() != cat {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(d.Name), term) &&
			!strings.Contains(strings.ToLower(d.Description), term) &&
			!strings.Contains(strings.ToLower(fmt.Sprint(d.Value)), term) {
			continue
		}
		out = append(out, d)
	}
	return out
}

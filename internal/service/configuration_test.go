package service

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"thermal_guard/internal/config"
)

func TestConfigService_Snapshot(t *testing.T) {
	svc := NewConfigService(testRegistry(t))

	snap := svc.Snapshot()
	if snap.Machine.Name != "Bench rig" {
		t.Fatalf("unexpected machine: %+v", snap.Machine)
	}
	if len(snap.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(snap.Channels))
	}
	if _, ok := snap.Enabled["Z_SAFE_HOMING"]; ok {
		t.Fatalf("disabled define exported")
	}
}

func TestConfigService_YAML(t *testing.T) {
	svc := NewConfigService(testRegistry(t))

	out, err := svc.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	var back map[string]any
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if !strings.Contains(string(out), "Bench rig") {
		t.Fatalf("machine name missing:\n%s", out)
	}
	if _, ok := back["channels"]; !ok {
		t.Fatalf("channels missing:\n%s", out)
	}
}

func TestConfigService_Defines(t *testing.T) {
	svc := NewConfigService(testRegistry(t))

	all := svc.Defines(config.DefineFilter{})
	enabled := svc.Defines(config.DefineFilter{EnabledOnly: true})
	if len(enabled) >= len(all) {
		t.Fatalf("enabled filter kept %d of %d defines", len(enabled), len(all))
	}

	got := svc.Defines(config.DefineFilter{Search: "bed_maxtemp"})
	if len(got) != 1 || got[0].Name != "BED_MAXTEMP" {
		t.Fatalf("unexpected search result: %+v", got)
	}
}

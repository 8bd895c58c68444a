package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"thermal_guard/internal/config"
	"thermal_guard/internal/service"
)

func TestConfig_JSONAndYAML(t *testing.T) {
	cfg := &mockConfiguration{
		snapshot: config.Snapshot{Machine: config.Machine{Name: "Ender-3", Baudrate: 115200}},
		yaml:     []byte("machine:\n  name: Ender-3\n"),
	}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Configuration: cfg})

	w := doGet(r, "/api/v1/config")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var snap config.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Machine.Name != "Ender-3" || snap.Machine.Baudrate != 115200 {
		t.Fatalf("unexpected snapshot: %+v", snap.Machine)
	}

	w = doGet(r, "/api/v1/config?format=YAML")
	if w.Code != http.StatusOK {
		t.Fatalf("yaml status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/yaml") {
		t.Fatalf("content type %q", ct)
	}
	if w.Body.String() != string(cfg.yaml) {
		t.Fatalf("yaml body %q", w.Body.String())
	}

	cfg.yamlErr = errors.New("encode")
	if w := doGet(r, "/api/v1/config?format=yaml"); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestConfig_Defines(t *testing.T) {
	cfg := &mockConfiguration{defines: []config.Define{
		{Name: "TEMP_SENSOR_0", Value: int64(1), Enabled: true, File: "Configuration.h", Line: 10},
		{Name: "HEATER_0_MAXTEMP", Value: int64(275), Enabled: true, File: "Configuration.h", Line: 20},
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Configuration: cfg})

	w := doGet(r, "/api/v1/config/defines?category=temperature&search=temp&enabled=true")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := config.DefineFilter{Category: "temperature", Search: "temp", EnabledOnly: true}
	if cfg.lastFilter != want {
		t.Fatalf("filter: got %+v, want %+v", cfg.lastFilter, want)
	}
	var out struct {
		Count   int `json:"count"`
		Defines []struct {
			Name     string `json:"name"`
			Category string `json:"category"`
			Line     int    `json:"line"`
		} `json:"defines"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Defines[1].Name != "HEATER_0_MAXTEMP" || out.Defines[1].Line != 20 {
		t.Fatalf("unexpected defines: %+v", out)
	}
	if out.Defines[0].Category != cfg.defines[0].Category() {
		t.Fatalf("category: got %q, want %q", out.Defines[0].Category, cfg.defines[0].Category())
	}

	if w := doGet(r, "/api/v1/config/defines?enabled=maybe"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

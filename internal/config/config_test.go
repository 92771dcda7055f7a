package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mibisweep.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Run.FOVSize != 500 {
		t.Errorf("default fov_size: got %d", cfg.Run.FOVSize)
	}
	if cfg.Supervisor.Trials != 3 {
		t.Errorf("default trials: got %d", cfg.Supervisor.Trials)
	}
	if !cfg.Run.RemoveSlideBG {
		t.Error("remove_slide_bg should default to true")
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging defaults: %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[run]
fovs = [" Point1 ", "", "Point2"]
fov_source = "Run_XML"

[sweep]
methods = ["Au"]
au_thresholds = [50, 100]

[supervisor]
timeout_seconds = 120
`)
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected the file to be found")
	}
	if got := cfg.Run.FOVs; len(got) != 2 || got[0] != "Point1" || got[1] != "Point2" {
		t.Errorf("fovs not trimmed/filtered: %v", got)
	}
	if cfg.Run.FOVSource != "run_xml" {
		t.Errorf("fov_source not lowercased: %q", cfg.Run.FOVSource)
	}
	if len(cfg.Sweep.AuThresholds) != 2 {
		t.Errorf("au thresholds: %v", cfg.Sweep.AuThresholds)
	}
	if cfg.Supervisor.TimeoutSeconds != 120 {
		t.Errorf("timeout: %d", cfg.Supervisor.TimeoutSeconds)
	}
}

func TestLoadRejectsUnknownMethod(t *testing.T) {
	path := writeConfig(t, `
[sweep]
methods = ["Au", "gold"]
`)
	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown removal method")
	}
	if !strings.Contains(err.Error(), "gold") {
		t.Fatalf("error should name the offending method: %v", err)
	}
}

func TestLoadRejectsBadFOVSource(t *testing.T) {
	path := writeConfig(t, `
[run]
fov_source = "csv"
`)
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown fov_source")
	}
}

func TestDefaultRemovalParsOverrideArrays(t *testing.T) {
	path := writeConfig(t, `
[sweep]
methods = ["Au"]
au_thresholds = [1, 2, 3]
use_default_removal_pars = true
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Sweep.Methods) != 4 {
		t.Fatalf("expected the vendor parameter set, got %v", cfg.Sweep.Methods)
	}
	if len(cfg.Sweep.AuThresholds) != 1 || cfg.Sweep.AuThresholds[0] != 50 {
		t.Fatalf("au thresholds not overridden: %v", cfg.Sweep.AuThresholds)
	}
	if len(cfg.Sweep.EventsThresholds) != 1 || cfg.Sweep.EventsThresholds[0] != 0.2 {
		t.Fatalf("events thresholds not overridden: %v", cfg.Sweep.EventsThresholds)
	}
}

func TestDefaultMassWindows(t *testing.T) {
	path := writeConfig(t, `
[run]
use_default_mass_windows = true
mass_start = -1.0
mass_stop = -0.5
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.MassStart != -0.3 || cfg.Run.MassStop != 0.3 {
		t.Fatalf("stock mass window not applied: [%v, %v]", cfg.Run.MassStart, cfg.Run.MassStop)
	}
}

func TestToolHelperFileDefaults(t *testing.T) {
	path := writeConfig(t, `
[tool]
helper_dir = "/opt/mibio-helper"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tool.ConfigFile != filepath.Join("/opt/mibio-helper", "mibio_config.json") {
		t.Errorf("config_file default: %q", cfg.Tool.ConfigFile)
	}
	if cfg.Tool.LogFile != filepath.Join("/opt/mibio-helper", "mibio.log") {
		t.Errorf("log_file default: %q", cfg.Tool.LogFile)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(target); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, _, err := Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

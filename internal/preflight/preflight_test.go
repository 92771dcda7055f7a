package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mibisweep/internal/config"
)

func TestCheckToolBinary(t *testing.T) {
	dir := t.TempDir()

	if res := CheckToolBinary(""); res.Passed {
		t.Error("empty path must fail")
	}
	if res := CheckToolBinary(filepath.Join(dir, "absent")); res.Passed {
		t.Error("missing binary must fail")
	}

	binary := filepath.Join(dir, "mibio")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if res := CheckToolBinary(binary); !res.Passed {
		t.Errorf("executable binary should pass: %s", res.Detail)
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckToolBinary(plain); res.Passed {
		t.Error("non-executable file must fail")
	}
}

func TestCheckRunConfig(t *testing.T) {
	dir := t.TempDir()

	if res := CheckRunConfig(filepath.Join(dir, "absent.json")); res.Passed {
		t.Error("missing config must fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckRunConfig(bad); res.Passed {
		t.Error("malformed JSON must fail")
	}

	good := filepath.Join(dir, "mibio_config.json")
	if err := os.WriteFile(good, []byte(`{"Generator.DefaultMassStart": -0.3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckRunConfig(good); !res.Passed {
		t.Errorf("valid config should pass: %s", res.Detail)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if res := CheckDirectoryAccess("dir", dir); !res.Passed {
		t.Errorf("writable directory should pass: %s", res.Detail)
	}
	if res := CheckDirectoryAccess("dir", filepath.Join(dir, "absent")); res.Passed {
		t.Error("missing directory must fail")
	}
}

func TestRunAllReportsEveryCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = dir
	cfg.Paths.ReviewDir = ""
	cfg.Tool.Binary = filepath.Join(dir, "absent")
	cfg.Tool.ConfigFile = filepath.Join(dir, "absent.json")
	cfg.Run.RunXML = filepath.Join(dir, "absent.xml")
	cfg.Run.PanelCSV = filepath.Join(dir, "absent.csv")

	results := RunAll(&cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 checks, got %d", len(results))
	}
	if AllPassed(results) {
		t.Error("checks against missing files cannot all pass")
	}

	names := make([]string, 0, len(results))
	for _, res := range results {
		names = append(names, res.Name)
	}
	joined := strings.Join(names, "|")
	for _, want := range []string{"Tool binary", "Tool run config", "Run XML", "Panel CSV", "Log directory"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing check %q in %s", want, joined)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mibisweep/internal/config"
	"mibisweep/internal/results"
)

func seedResultsConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[paths]\nlog_dir = %q\nreview_dir = %q\n",
		filepath.Join(dir, "logs"), filepath.Join(dir, "review"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestResultsCommandRendersRunsAndSummary(t *testing.T) {
	cfgPath := seedResultsConfig(t)

	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	store, err := results.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.RecordRun(ctx, results.Run{
		SweepID: "sweep-1", Identifier: "bg_au_050", Methods: "Au",
		Status: results.StatusDone, ArtifactSize: 2048,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordRun(ctx, results.Run{
		SweepID: "sweep-1", Identifier: "bg_au_100", Methods: "Au",
		Status: results.StatusFailed, Error: "no artifact",
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	cmd := newResultsCommand(newCommandContext(&cfgPath))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--sweep", "sweep-1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("results: %v", err)
	}

	body := out.String()
	for _, want := range []string{"bg_au_050", "bg_au_100", "no artifact"} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q:\n%s", want, body)
		}
	}
	if !strings.Contains(body, "2 runs: 1 done, 1 failed, 0 skipped") {
		t.Errorf("summary footer missing:\n%s", body)
	}
}

func TestResultsCommandEmptyStore(t *testing.T) {
	cfgPath := seedResultsConfig(t)

	cmd := newResultsCommand(newCommandContext(&cfgPath))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("results: %v", err)
	}
	if !strings.Contains(out.String(), "No recorded runs") {
		t.Errorf("expected empty-store message, got:\n%s", out.String())
	}
}

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mibisweep/internal/services"
)

type fakeLauncher struct {
	started  int
	onStart  func()
	startErr error
}

func (f *fakeLauncher) Start(_ context.Context, _ []string, _ string) (int, error) {
	f.started++
	if f.startErr != nil {
		return 0, f.startErr
	}
	if f.onStart != nil {
		f.onStart()
	}
	return 4321, nil
}

func instantSleep(_ context.Context, _ time.Duration) error { return nil }

func TestRunDetectsArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "Point1_RowNumber0_Depth_Profile0.tiff")
	launcher := &fakeLauncher{onStart: func() {
		if err := os.WriteFile(artifact, []byte("tiff bytes"), 0o644); err != nil {
			t.Fatal(err)
		}
	}}

	sup := New(launcher, nil, WithSleep(instantSleep))
	result, err := sup.Run(context.Background(), Job{
		Args:         []string{"generate_tiff"},
		ArtifactPath: artifact,
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.ArtifactSize != int64(len("tiff bytes")) {
		t.Errorf("artifact size: got %d", result.ArtifactSize)
	}
	if launcher.started != 1 {
		t.Errorf("launcher started %d times", launcher.started)
	}
}

func TestRunRefusesCollision(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "stale.tiff")
	if err := os.WriteFile(artifact, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	launcher := &fakeLauncher{}
	sup := New(launcher, nil, WithSleep(instantSleep))
	_, err := sup.Run(context.Background(), Job{
		ArtifactPath: artifact,
		Timeout:      time.Second,
		Trials:       3,
	})
	if !errors.Is(err, services.ErrCollision) {
		t.Fatalf("expected ErrCollision, got %v", err)
	}
	if launcher.started != 0 {
		t.Error("launcher must not start on collision")
	}
}

func TestRunTimesOutWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	sleeps := 0
	sup := New(&fakeLauncher{}, nil, WithSleep(func(_ context.Context, _ time.Duration) error {
		sleeps++
		return nil
	}))
	_, err := sup.Run(context.Background(), Job{
		ArtifactPath: filepath.Join(dir, "never.tiff"),
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	// One full-timeout sleep plus one probe sleep per trial.
	if sleeps != 4 {
		t.Errorf("expected 4 sleeps, got %d", sleeps)
	}
}

func TestRunDetectsArtifactOnLateTrial(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "late.tiff")
	sleeps := 0
	sup := New(&fakeLauncher{}, nil, WithSleep(func(_ context.Context, _ time.Duration) error {
		sleeps++
		// Artifact appears during the second probe interval.
		if sleeps == 3 {
			if err := os.WriteFile(artifact, []byte("late bytes"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return nil
	}))
	result, err := sup.Run(context.Background(), Job{
		ArtifactPath: artifact,
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.ArtifactSize != int64(len("late bytes")) {
		t.Errorf("artifact size: got %d", result.ArtifactSize)
	}
}

func TestRunStopsProbingAfterLastTrial(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "almost.tiff")
	sleeps := 0
	sup := New(&fakeLauncher{}, nil, WithSleep(func(_ context.Context, _ time.Duration) error {
		sleeps++
		// Artifact only appears during the sleep following the third and
		// final probe. The trial budget is spent, so this is still a timeout.
		if sleeps == 4 {
			if err := os.WriteFile(artifact, []byte("too late"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		return nil
	}))
	_, err := sup.Run(context.Background(), Job{
		ArtifactPath: artifact,
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRunRejectsEmptyArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "empty.tiff")
	launcher := &fakeLauncher{onStart: func() {
		if err := os.WriteFile(artifact, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}}
	sup := New(launcher, nil, WithSleep(instantSleep))
	_, err := sup.Run(context.Background(), Job{
		ArtifactPath: artifact,
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool for empty artifact, got %v", err)
	}
}

func TestRunCancelledDuringWait(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	sup := New(&fakeLauncher{}, nil, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	_, err := sup.Run(ctx, Job{
		ArtifactPath: filepath.Join(dir, "never.tiff"),
		LogPath:      filepath.Join(dir, "out.log"),
		Timeout:      time.Second,
		Trials:       3,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

package sweep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mibisweep/internal/archive"
	"mibisweep/internal/config"
	"mibisweep/internal/fov"
	"mibisweep/internal/results"
	"mibisweep/internal/runconfig"
	"mibisweep/internal/services"
	"mibisweep/internal/supervisor"
)

type fakeBuilder struct {
	applied []runconfig.Params
	err     error
}

func (f *fakeBuilder) Apply(p runconfig.Params) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.applied = append(f.applied, p)
	return p.Identifier(), nil
}

type fakeRunner struct {
	jobs []supervisor.Job
	err  error
}

func (f *fakeRunner) Run(_ context.Context, job supervisor.Job) (*supervisor.Result, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return nil, f.err
	}
	return &supervisor.Result{ArtifactSize: 2048, Duration: time.Minute}, nil
}

type fakeArchiver struct {
	records []archive.Record
	err     error
}

func (f *fakeArchiver) Commit(_ context.Context, rec archive.Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeRecorder struct {
	runs []results.Run
}

func (f *fakeRecorder) RecordRun(_ context.Context, run results.Run) (int64, error) {
	f.runs = append(f.runs, run)
	return int64(len(f.runs)), nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Run.RunXML = filepath.Join(dir, "slide4.xml")
	cfg.Run.PanelCSV = filepath.Join(dir, "panel.csv")
	cfg.Run.RemoveSlideBG = true
	cfg.Sweep.Methods = []string{"Au"}
	cfg.Sweep.AuThresholds = []float64{50, 100}
	cfg.Supervisor.TimeoutSeconds = 60
	cfg.Supervisor.Trials = 3
	cfg.Tool.ConfigFile = filepath.Join(dir, "mibio_config.json")
	cfg.Tool.LogFile = filepath.Join(dir, "mibio.log")
	return &cfg
}

func newController(cfg *config.Config, builder *fakeBuilder, runner *fakeRunner, archiver *fakeArchiver, recorder Recorder) *Controller {
	src := fov.StaticSource{Names: []string{"Point1_slide4", "Point2_slide4"}}
	return New(cfg, builder, runner, archiver, recorder, src, "sweep-test", nil)
}

func TestRunSweepsAllCombinations(t *testing.T) {
	cfg := testConfig(t)
	builder := &fakeBuilder{}
	runner := &fakeRunner{}
	archiver := &fakeArchiver{}
	recorder := &fakeRecorder{}

	summary, err := newController(cfg, builder, runner, archiver, recorder).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 2 || summary.Done != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(builder.applied) != 2 {
		t.Fatalf("builder applied %d times", len(builder.applied))
	}
	if builder.applied[0].AuThreshold != 50 || builder.applied[1].AuThreshold != 100 {
		t.Errorf("thresholds out of order: %v %v", builder.applied[0].AuThreshold, builder.applied[1].AuThreshold)
	}

	outputDir := OutputDir(cfg.Run.RunXML)
	if len(archiver.records) != 2 {
		t.Fatalf("archived %d records", len(archiver.records))
	}
	if got := archiver.records[0].DestinationDir; got != filepath.Join(outputDir, "bg_au_050") {
		t.Errorf("first archive dir: %q", got)
	}
	if got := archiver.records[1].DestinationDir; got != filepath.Join(outputDir, "bg_au_100") {
		t.Errorf("second archive dir: %q", got)
	}

	if len(runner.jobs) != 2 {
		t.Fatalf("ran %d jobs", len(runner.jobs))
	}
	job := runner.jobs[0]
	if job.Timeout != 60*time.Second {
		t.Errorf("timeout: %s", job.Timeout)
	}
	if filepath.Base(job.ArtifactPath) != "Point1_RowNumber0_Depth_Profile0.tiff" {
		t.Errorf("artifact name: %q", filepath.Base(job.ArtifactPath))
	}

	if len(recorder.runs) != 2 {
		t.Fatalf("recorded %d runs", len(recorder.runs))
	}
	if recorder.runs[0].Status != results.StatusDone || recorder.runs[0].Identifier != "bg_au_050" {
		t.Errorf("first record: %+v", recorder.runs[0])
	}
	if !recorder.runs[0].AuThreshold.Valid || recorder.runs[0].AuThreshold.Float64 != 50 {
		t.Errorf("au threshold not recorded: %+v", recorder.runs[0].AuThreshold)
	}
}

func TestRunNoRemovalSingleCombination(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.RemoveSlideBG = false
	builder := &fakeBuilder{}
	archiver := &fakeArchiver{}

	summary, err := newController(cfg, builder, &fakeRunner{}, archiver, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Total != 1 || summary.Done != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := filepath.Base(archiver.records[0].DestinationDir); got != runconfig.NoRemovalIdentifier {
		t.Errorf("archive dir: %q", got)
	}
	if builder.applied[0].RemoveSlideBG {
		t.Error("builder should have been asked to disable removal")
	}
}

func TestRunSkipsExistingArchiveDir(t *testing.T) {
	cfg := testConfig(t)
	outputDir := OutputDir(cfg.Run.RunXML)
	if err := os.MkdirAll(filepath.Join(outputDir, "bg_au_050"), 0o755); err != nil {
		t.Fatal(err)
	}

	builder := &fakeBuilder{}
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}
	summary, err := newController(cfg, builder, runner, &fakeArchiver{}, recorder).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Collisions != 1 || summary.Done != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	// The colliding combination never touched the tool config or launched.
	if len(builder.applied) != 1 || len(runner.jobs) != 1 {
		t.Errorf("collision should skip before building: applied=%d jobs=%d", len(builder.applied), len(runner.jobs))
	}
	if recorder.runs[0].Status != results.StatusCollision {
		t.Errorf("first record status: %q", recorder.runs[0].Status)
	}
}

func TestRunRecordsFailures(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{err: services.Wrap(services.ErrTimeout, "supervisor", "run", "no artifact", nil)}
	recorder := &fakeRecorder{}

	summary, err := newController(cfg, &fakeBuilder{}, runner, &fakeArchiver{}, recorder).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 2 || summary.Done != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.AllFailed() {
		t.Error("AllFailed should report true")
	}
	if recorder.runs[0].Status != results.StatusFailed || recorder.runs[0].Error == "" {
		t.Errorf("failure not recorded: %+v", recorder.runs[0])
	}
}

func TestRunSupervisorCollisionCountsAsSkip(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{err: services.Wrap(services.ErrCollision, "supervisor", "run", "artifact already exists", nil)}

	summary, err := newController(cfg, &fakeBuilder{}, runner, &fakeArchiver{}, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Collisions != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.AllFailed() {
		t.Error("collisions are not failures")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	controller := New(cfg, &fakeBuilder{}, &cancellingRunner{cancel: cancel}, &fakeArchiver{}, nil,
		fov.StaticSource{Names: []string{"Point1"}}, "sweep-test", nil)
	summary, err := controller.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Done != 0 {
		t.Errorf("no combination should complete: %+v", summary)
	}
}

type cancellingRunner struct {
	cancel context.CancelFunc
}

func (c *cancellingRunner) Run(ctx context.Context, _ supervisor.Job) (*supervisor.Result, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestEffectiveTimeoutScalesWithWorkload(t *testing.T) {
	cfg := config.Default()
	cfg.Supervisor.TimeoutSeconds = 0

	if got := EffectiveTimeout(&cfg, 2, 1); got != 360*time.Second {
		t.Errorf("2 fovs, 1 method: %s", got)
	}
	if got := EffectiveTimeout(&cfg, 2, 3); got != 420*time.Second {
		t.Errorf("2 fovs, 3 methods: %s", got)
	}

	cfg.Supervisor.TimeoutSeconds = 90
	if got := EffectiveTimeout(&cfg, 10, 4); got != 90*time.Second {
		t.Errorf("explicit timeout wins: %s", got)
	}
}

func TestOutputDir(t *testing.T) {
	got := OutputDir("/data/runs/slide4.xml")
	want := filepath.Join("/data/runs", "slide4", "slide4_TIFF")
	if got != want {
		t.Fatalf("output dir: got %q, want %q", got, want)
	}
}

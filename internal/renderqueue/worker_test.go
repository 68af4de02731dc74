package renderqueue_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"soundlab/internal/logging"
	"soundlab/internal/renderqueue"
	"soundlab/internal/session"
	"soundlab/internal/testsupport"
	"soundlab/internal/timeline"
)

func waitForJob(t *testing.T, store *session.Store, id string, status session.JobStatus) *session.RenderJob {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetRenderJob(context.Background(), id)
		if err != nil {
			t.Fatalf("GetRenderJob failed: %v", err)
		}
		if job.Status == status {
			return job
		}
		if job.Terminal() {
			t.Fatalf("job settled as %s (%s), want %s", job.Status, job.ErrorMessage, status)
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job never reached %s", status)
	return nil
}

func TestWorkerRendersQueuedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.WriteWAV(t, cfg.Paths.AssetDir, "asset-1", 2, 0.5)
	clip := testsupport.NewClip("c1", timeline.LaneMusic, 0, 2)
	clip.AssetID = "asset-1"
	sess, err := store.SaveSession(ctx, "night theme", testsupport.NewState(clip), nil)
	if err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	worker := renderqueue.NewWorker(cfg, store, nil, logging.NewNop())
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer worker.Stop()

	job, err := store.NewRenderJob(ctx, sess.ID, 44100, 2, nil)
	if err != nil {
		t.Fatalf("NewRenderJob failed: %v", err)
	}

	done := waitForJob(t, store, job.ID, session.JobCompleted)
	if done.ProgressPercent != 100 {
		t.Fatalf("progress = %d, want 100", done.ProgressPercent)
	}
	if !strings.HasPrefix(done.OutputPath, cfg.Paths.ExportDir) {
		t.Fatalf("output %s not under export dir", done.OutputPath)
	}
	data, err := os.ReadFile(done.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// 44-byte header plus two seconds of 16-bit stereo PCM.
	if len(data) != 44+2*44100*2*2 {
		t.Fatalf("output size = %d", len(data))
	}
}

func TestWorkerMarksBrokenJobFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sess, _ := store.SaveSession(ctx, "demo", testsupport.NewState(), nil)
	// A zero sample rate cannot render.
	job, err := store.NewRenderJob(ctx, sess.ID, 0, 2, nil)
	if err != nil {
		t.Fatalf("NewRenderJob failed: %v", err)
	}

	worker := renderqueue.NewWorker(cfg, store, nil, logging.NewNop())
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer worker.Stop()

	failed := waitForJob(t, store, job.ID, session.JobFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("failed job must carry an error message")
	}
}

func TestWorkerStartRequeuesStuckJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sess, _ := store.SaveSession(ctx, "demo", testsupport.NewState(), nil)
	job, _ := store.NewRenderJob(ctx, sess.ID, 44100, 2, nil)
	if _, err := store.NextPendingJob(ctx); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	worker := renderqueue.NewWorker(cfg, store, nil, logging.NewNop())
	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer worker.Stop()

	// The abandoned job goes back to pending on startup and the loop then
	// picks it up; an empty session renders to an empty mixdown.
	waitForJob(t, store, job.ID, session.JobCompleted)
}

func TestWorkerStartStopLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	worker := renderqueue.NewWorker(cfg, store, nil, logging.NewNop())
	if worker.Running() {
		t.Fatal("worker must not run before Start")
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := worker.Start(context.Background()); err != nil {
		t.Fatalf("second Start must be a no-op, got %v", err)
	}
	if !worker.Running() {
		t.Fatal("worker must report running")
	}
	worker.Stop()
	worker.Stop() // idempotent
	if worker.Running() {
		t.Fatal("worker must stop")
	}
}
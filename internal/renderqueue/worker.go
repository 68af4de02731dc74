// Package renderqueue drains pending render jobs from the session store:
// one job at a time, rendered offline and written into the export
// directory, with progress persisted as it advances. A failed render marks
// the job failed and leaves the stored session untouched.
package renderqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"soundlab/internal/config"
	"soundlab/internal/logging"
	"soundlab/internal/render"
	"soundlab/internal/services"
	"soundlab/internal/session"
	"soundlab/internal/timeline"
)

// Worker polls for pending jobs and renders them sequentially.
type Worker struct {
	cfg    *config.Config
	store  *session.Store
	source render.Source
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewWorker builds a render queue worker. A nil source falls back to the
// configured asset directory.
func NewWorker(cfg *config.Config, store *session.Store, source render.Source, logger *slog.Logger) *Worker {
	if source == nil {
		source = render.NewDirSource(cfg.Paths.AssetDir)
	}
	return &Worker{
		cfg:    cfg,
		store:  store,
		source: source,
		logger: logging.NewComponentLogger(logger, "render-queue"),
	}
}

// Start launches the polling loop. Jobs stuck in rendering from an unclean
// shutdown are rolled back to pending first.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	reset, err := w.store.ResetStuckJobs(ctx)
	if err != nil {
		return fmt.Errorf("reset stuck jobs: %w", err)
	}
	if reset > 0 {
		w.logger.Info("requeued interrupted render jobs", logging.Int64("count", reset))
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	go w.loop(loopCtx)
	return nil
}

// Stop cancels the polling loop and waits for an in-flight job to settle.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	done := w.done
	w.running = false
	w.mu.Unlock()
	<-done
}

// Running reports whether the worker loop is active.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	interval := time.Duration(w.cfg.Render.PollInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain processes pending jobs until the queue is empty or the context is
// cancelled.
func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.store.NextPendingJob(ctx)
		if err != nil {
			w.logger.Error("claim render job", logging.Error(err))
			return
		}
		if job == nil {
			return
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *session.RenderJob) {
	jobCtx, cancel := context.WithTimeout(
		services.WithSessionID(services.WithJobID(ctx, job.ID), job.SessionID),
		time.Duration(w.cfg.Render.JobTimeoutSeconds)*time.Second,
	)
	defer cancel()

	logger := logging.WithContext(jobCtx, w.logger)
	logger.Info("render started")

	sess, err := w.store.GetSession(jobCtx, job.SessionID)
	if err != nil {
		w.fail(jobCtx, logger, job, services.Wrap(services.ErrNotFound, "render-queue", "load session", "", err))
		return
	}

	solo := make(map[timeline.Lane]struct{}, len(job.SoloLanes))
	for _, lane := range job.SoloLanes {
		solo[lane] = struct{}{}
	}

	opts := render.Options{
		SampleRate: job.SampleRate,
		Channels:   job.Channels,
		SoloLanes:  solo,
		Progress: func(percent int) {
			_ = w.store.UpdateJobProgress(jobCtx, job.ID, percent, "rendering")
		},
	}
	buf, err := render.NewRenderer(w.source).Render(jobCtx, sess.State, opts)
	if err != nil {
		w.fail(jobCtx, logger, job, services.Wrap(services.ErrTransient, "render-queue", "render", "", err))
		return
	}

	path, err := writeExport(w.cfg.Paths.ExportDir, sess.Name, buf)
	if err != nil {
		w.fail(jobCtx, logger, job, err)
		return
	}

	if err := w.store.CompleteJob(jobCtx, job.ID, path); err != nil {
		logger.Error("mark job completed", logging.Error(err))
		return
	}
	logger.Info("render completed",
		logging.String("output", path),
		logging.Float64("seconds", buf.Duration()),
	)
}

func (w *Worker) fail(ctx context.Context, logger *slog.Logger, job *session.RenderJob, cause error) {
	logger.Error("render failed",
		logging.Error(cause),
		logging.Bool("permanent", services.Permanent(cause)))
	if err := w.store.FailJob(ctx, job.ID, cause.Error()); err != nil {
		logger.Error("mark job failed", logging.Error(err))
	}
}

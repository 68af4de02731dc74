// Package daemon coordinates the soundlab background services: the render
// queue worker, the HTTP API, the live mixer transport, and the sound
// device monitor. It enforces single-instance execution through a file
// lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"soundlab/internal/config"
	"soundlab/internal/logging"
	"soundlab/internal/mixer"
	"soundlab/internal/renderqueue"
	"soundlab/internal/session"
)

// Daemon owns the long-running services and the instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *session.Store
	worker *renderqueue.Worker
	mixer  *mixer.Mixer

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	monitor *deviceMonitor

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	WorkerRunning bool
	SessionDBPath string
	LockFilePath  string
	JobStats      map[string]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *session.Store, worker *renderqueue.Worker, mix *mixer.Mixer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || worker == nil || mix == nil {
		return nil, errors.New("daemon requires config, store, worker, and mixer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "soundlabd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		worker:   worker,
		mixer:    mix,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.monitor = newDeviceMonitor(cfg, d.logger, mix)

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the instance lock and launches the background services.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another soundlab daemon instance is already running")
	}

	if err := checkExportSpace(d.cfg); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.worker.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start render worker: %w", err)
	}
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.worker.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}
	if d.monitor != nil {
		if err := d.monitor.Start(d.ctx); err != nil {
			d.logger.Warn("device monitor unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("soundlab daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.api != nil {
		d.api.stop()
	}
	d.worker.Stop()
	d.mixer.Stop()
	if failed, err := d.store.FailActiveJobs(context.Background(), session.WorkerStopReason); err != nil {
		d.logger.Warn("failed to settle active render jobs", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("active render jobs marked failed", logging.Int64("count", failed))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("soundlab daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.mixer.Dispose()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon services are active.
func (d *Daemon) Running() bool { return d.running.Load() }

// Status summarizes the daemon's runtime state.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	stats, err := d.store.JobStats(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:       d.running.Load(),
		WorkerRunning: d.worker.Running(),
		SessionDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		JobStats:      stats,
	}, nil
}

// Store exposes the session store for the IPC and API surfaces.
func (d *Daemon) Store() *session.Store { return d.store }

// Mixer exposes the live mixer for the transport API surface.
func (d *Daemon) Mixer() *mixer.Mixer { return d.mixer }

// Config returns the daemon configuration.
func (d *Daemon) Config() *config.Config { return d.cfg }

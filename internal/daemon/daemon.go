package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"storyreel/internal/api"
	"storyreel/internal/clip"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/narrative"
	"storyreel/internal/services"
	"storyreel/internal/services/kling"
	"storyreel/internal/statuscache"
	"storyreel/internal/tasklog"
)

// Pipeline runs one narrative request.
type Pipeline interface {
	Run(ctx context.Context, frames []string) (narrative.Result, error)
}

// TaskQuerier fetches provider task state.
type TaskQuerier interface {
	Query(ctx context.Context, taskID string) (kling.Task, error)
}

// Deps are the collaborators a daemon serves. Store and Cache are optional.
type Deps struct {
	Pipeline Pipeline
	Provider TaskQuerier
	Store    *tasklog.Store
	Cache    statuscache.Cache
	Version  string
}

// Daemon serves the HTTP API and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline Pipeline
	provider TaskQuerier
	store    *tasklog.Store
	recorder *tasklog.Recorder
	cache    statuscache.Cache
	version  string

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running   atomic.Bool
	startedAt time.Time
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Pipeline == nil || deps.Provider == nil {
		return nil, errors.New("daemon requires config, pipeline, and video provider")
	}
	cache := deps.Cache
	if cache == nil {
		cache = statuscache.Disabled{}
	}
	var writer tasklog.Writer
	if deps.Store != nil {
		writer = deps.Store
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pipeline: deps.Pipeline,
		provider: deps.Provider,
		store:    deps.Store,
		recorder: tasklog.NewRecorder(writer, logger),
		cache:    cache,
		version:  deps.Version,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another storyreel daemon instance is already running")
	}
	if err := d.server.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}
	d.startedAt = time.Now().UTC()
	d.running.Store(true)
	d.logger.Info("storyreel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
	)
	return nil
}

// Stop shuts the API down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.server.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("storyreel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if d.cache != nil {
		errs = append(errs, d.cache.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Addr reports the address the API is listening on.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status() api.DaemonStatus {
	status := api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Version:      d.version,
		LockFilePath: d.lockPath,
		LLMModel:     d.cfg.LLM.Model,
		VideoModel:   d.cfg.Video.ModelName,
		VideoMode:    d.cfg.Video.Mode,
		AuthEnabled:  len(d.cfg.API.Tokens) > 0,
	}
	if !d.startedAt.IsZero() {
		status.StartedAt = d.startedAt.Format(time.RFC3339)
	}
	if d.store != nil {
		status.TaskLogPath = d.store.Path()
	}
	if _, disabled := d.cache.(statuscache.Disabled); !disabled {
		status.CacheEnabled = true
	}
	return status
}

// Submit runs the narrative pipeline for one request.
func (d *Daemon) Submit(ctx context.Context, frames []string) (narrative.Result, error) {
	return d.pipeline.Run(ctx, frames)
}

// PollClip returns the status of one task. Resolved answers are served from
// the cache when present; fresh terminal answers are cached and written back
// to the task log.
func (d *Daemon) PollClip(ctx context.Context, taskID string) (clip.PollResult, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return clip.PollResult{}, services.Wrap(services.ErrValidation, "poll", "query task", "task id required", nil)
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldTaskID, taskID))

	cached, ok, err := d.cache.Get(ctx, taskID)
	if err != nil {
		logging.WarnWithContext(logger, "status cache read failed", "status_cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache.redis_addr"),
			logging.String(logging.FieldImpact, "status served from the video provider"),
		)
	} else if ok {
		logger.Debug("status served from cache", logging.String("status", string(cached.Status)))
		return cached, nil
	}

	task, err := d.provider.Query(ctx, taskID)
	if err != nil {
		if kling.IsNotFound(err) {
			return clip.PollResult{}, services.Wrap(services.ErrNotFound, "poll", "query task", taskID, err)
		}
		return clip.PollResult{}, services.Wrap(services.ErrPolling, "poll", "query task", taskID, err)
	}
	res := clip.PollResult{TaskID: taskID, Status: task.Status, VideoURL: task.VideoURL}

	if res.Status == clip.StatusResolved && res.VideoURL != "" {
		if err := d.cache.Set(ctx, res); err != nil {
			logging.WarnWithContext(logger, "status cache write failed", "status_cache_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache.redis_addr"),
				logging.String(logging.FieldImpact, "later polls for this clip query the provider again"),
			)
		}
	}
	if res.Status == clip.StatusResolved || res.Status == clip.StatusError {
		d.recorder.RecordResult(ctx, taskID, res.Status, res.VideoURL)
	}
	logger.Debug("status polled",
		logging.String("status", string(res.Status)),
		logging.String("provider_status", task.ProviderStatus),
	)
	return res, nil
}

// ListTasks returns an owner's task history, newest first.
func (d *Daemon) ListTasks(ctx context.Context, owner string, limit int) ([]tasklog.Record, error) {
	if d.store == nil {
		return nil, nil
	}
	return d.store.List(ctx, owner, limit)
}

// Handler exposes the API router, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.server.handler
}

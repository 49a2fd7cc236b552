package reel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

const defaultPollInterval = 4 * time.Second

// StatusSource answers a status query for one task.
type StatusSource interface {
	Poll(ctx context.Context, taskID string) (clip.PollResult, error)
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Interval time.Duration
	// Timeout fails clips still pending this long after submission. Zero
	// disables the watchdog.
	Timeout time.Duration
}

// Poller refreshes pending clips in a session on a fixed interval.
type Poller struct {
	session  *Session
	source   StatusSource
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewPoller builds a poller for session.
func NewPoller(session *Session, source StatusSource, opts PollerOptions, logger *slog.Logger) *Poller {
	p := &Poller{
		session:  session,
		source:   source,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		logger:   logging.NewComponentLogger(logger, "poller"),
		now:      time.Now,
	}
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	return p
}

// Run polls until ctx is cancelled. It parks while nothing is pending and
// wakes when the session changes. The next tick is armed only after the
// previous batch has been merged, so ticks never overlap.
func (p *Poller) Run(ctx context.Context) error {
	for {
		changed := p.session.Changed()
		if _, pending := p.session.PendingTasks(); len(pending) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changed:
				continue
			}
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		p.Tick(ctx)
	}
}

// Tick queries every pending task concurrently, waits for all answers, and
// merges them as one batch. It reports whether the batch was applied.
func (p *Poller) Tick(ctx context.Context) bool {
	gen, tasks := p.session.PendingTasks()
	if len(tasks) == 0 {
		return false
	}

	results := make([]clip.PollResult, len(tasks))
	var g errgroup.Group
	for i, taskID := range tasks {
		g.Go(func() error {
			results[i] = p.query(ctx, taskID)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return false
	}
	applied := p.session.Merge(gen, results)
	if !applied {
		p.logger.Debug("discarded poll batch from previous generation", logging.Int("tasks", len(tasks)))
		return false
	}
	p.enforceTimeout(gen)

	summary := p.session.Summary()
	p.logger.Debug("poll batch merged",
		logging.Int("queried", len(tasks)),
		logging.Int("ready", summary.Ready),
		logging.Int("pending", summary.Pending),
		logging.Int("failed", summary.Failed),
	)
	return true
}

func (p *Poller) query(ctx context.Context, taskID string) clip.PollResult {
	res, err := p.source.Poll(ctx, taskID)
	if err != nil {
		err = services.Wrap(services.ErrPolling, "poll", "query task", taskID, err)
		logging.WarnWithContext(p.logger, "clip status query failed", "clip_poll_failed",
			logging.String(logging.FieldTaskID, taskID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the daemon or video provider may be unreachable"),
			logging.String(logging.FieldImpact, "status will be retried on the next tick"),
		)
		return clip.PollResult{TaskID: taskID, Err: err}
	}
	res.TaskID = taskID
	return res
}

func (p *Poller) enforceTimeout(gen uint64) {
	if p.timeout <= 0 {
		return
	}
	submitted := p.session.SubmittedAt()
	if submitted.IsZero() || p.now().Sub(submitted) < p.timeout {
		return
	}
	reason := fmt.Sprintf("no video after %s", p.timeout)
	if n := p.session.ExpirePending(gen, reason); n > 0 {
		logging.WarnWithContext(p.logger, "clips timed out", "clip_poll_timeout",
			logging.Int("clips", n),
			logging.Duration("timeout", p.timeout),
			logging.String(logging.FieldErrorHint, "raise poll.timeout_seconds or check the provider dashboard"),
			logging.String(logging.FieldImpact, "timed out clips are excluded from playback"),
		)
	}
}

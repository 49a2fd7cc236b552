package reel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
)

var (
	// ErrNotReady is returned by Start when some clip has no video yet.
	ErrNotReady = errors.New("reel is not ready for playback")
	// ErrStopped is returned by Start when the run is interrupted before the
	// last clip finishes.
	ErrStopped = errors.New("playback stopped")
)

// Ready reports whether combined playback is available for an ordered view.
func Ready(ordered []clip.Plan) bool {
	if len(ordered) == 0 {
		return false
	}
	for _, p := range ordered {
		if p.VideoURL == "" {
			return false
		}
	}
	return true
}

// Playback plays the session's clips back to back in timeline order.
type Playback struct {
	session *Session
	player  Player
	logger  *slog.Logger

	mu       sync.Mutex
	run      uint64
	position int
	playing  bool
	cancel   context.CancelFunc
}

// NewPlayback builds a playback engine over session.
func NewPlayback(session *Session, player Player, logger *slog.Logger) *Playback {
	return &Playback{session: session, player: player, logger: logging.NewComponentLogger(logger, "playback")}
}

// Ready reports whether the session can be played.
func (p *Playback) Ready() bool {
	return Ready(p.session.Ordered())
}

// Position reports the current clip position and whether playback is active.
func (p *Playback) Position() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, p.playing
}

// Start plays from position 0 and blocks until the last clip ends, Stop is
// called, or ctx is cancelled. Starting again interrupts a running playback.
// The ordered view is re-read before every clip. An interrupted run returns
// ErrStopped.
func (p *Playback) Start(ctx context.Context) error {
	if !p.Ready() {
		return ErrNotReady
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.run++
	run := p.run
	p.position = 0
	p.playing = true
	p.cancel = cancel
	p.mu.Unlock()
	defer p.finish(run, cancel)

	for {
		p.mu.Lock()
		if p.run != run {
			p.mu.Unlock()
			return ErrStopped
		}
		pos := p.position
		p.mu.Unlock()

		ordered := p.session.Ordered()
		if pos >= len(ordered) || ordered[pos].VideoURL == "" {
			return nil
		}
		p.logger.Debug("playing clip", logging.Int("position", pos), logging.Int("clips", len(ordered)))
		if err := p.player.Play(runCtx, ordered[pos].VideoURL); err != nil {
			if runCtx.Err() != nil {
				return ErrStopped
			}
			return err
		}
		if runCtx.Err() != nil {
			return ErrStopped
		}

		p.mu.Lock()
		if p.run == run {
			p.position++
		}
		p.mu.Unlock()
	}
}

func (p *Playback) finish(run uint64, cancel context.CancelFunc) {
	cancel()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.run == run {
		p.playing = false
		p.cancel = nil
	}
}

// Stop interrupts playback.
func (p *Playback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

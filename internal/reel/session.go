package reel

import (
	"sync"
	"time"

	"storyreel/internal/clip"
)

// Session is the client-side state for the current narrative result.
type Session struct {
	mu          sync.RWMutex
	generation  uint64
	plans       []clip.Plan
	storyRaw    string
	submittedAt time.Time
	timeline    Timeline
	changed     chan struct{}
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{changed: make(chan struct{})}
}

// Load replaces the session contents with a fresh result and returns the new
// generation. The timeline resets to the identity ordering.
func (s *Session) Load(plans []clip.Plan, storyRaw string, submittedAt time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.plans = append([]clip.Plan(nil), plans...)
	s.storyRaw = storyRaw
	s.submittedAt = submittedAt
	s.timeline = NewTimeline(len(plans))
	s.notifyLocked()
	return s.generation
}

// Changed returns a channel that is closed on the next state change.
func (s *Session) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Generation reports the current generation.
func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// StoryRaw returns the raw story text of the current result.
func (s *Session) StoryRaw() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storyRaw
}

// SubmittedAt reports when the current result was submitted.
func (s *Session) SubmittedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submittedAt
}

// Plans returns a copy of the plans in submission order.
func (s *Session) Plans() []clip.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]clip.Plan(nil), s.plans...)
}

// Ordered returns the plans in timeline order.
func (s *Session) Ordered() []clip.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeline.Apply(s.plans)
}

// Order returns the timeline permutation.
func (s *Session) Order() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeline.Order()
}

// Move reorders the timeline. See Timeline.Move.
func (s *Session) Move(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.timeline.Move(from, to) {
		return false
	}
	s.notifyLocked()
	return true
}

// PendingTasks returns the current generation and the task ids that still
// need polling.
func (s *Session) PendingTasks() (uint64, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, p := range s.plans {
		if p.Pending() {
			ids = append(ids, p.TaskID)
		}
	}
	return s.generation, ids
}

// Merge applies a batch of poll results to the plans of generation gen. A
// batch for an older generation is discarded and Merge reports false.
func (s *Session) Merge(gen uint64, results []clip.PollResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	byTask := make(map[string]clip.PollResult, len(results))
	for _, r := range results {
		if r.TaskID != "" {
			byTask[r.TaskID] = r
		}
	}
	changed := false
	for i, p := range s.plans {
		res, ok := byTask[p.TaskID]
		if !ok || p.TaskID == "" {
			continue
		}
		next := Reduce(p, res)
		if next != p {
			s.plans[i] = next
			changed = true
		}
	}
	if changed {
		s.notifyLocked()
	}
	return true
}

// ExpirePending fails every plan of generation gen that is still pending.
func (s *Session) ExpirePending(gen uint64, reason string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return 0
	}
	expired := 0
	for i, p := range s.plans {
		if !p.Pending() {
			continue
		}
		s.plans[i].Status = clip.StatusError
		s.plans[i].Error = reason
		expired++
	}
	if expired > 0 {
		s.notifyLocked()
	}
	return expired
}

// Summary counts the current plans by state.
func (s *Session) Summary() clip.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clip.Summarize(s.plans)
}

package reel

import "storyreel/internal/clip"

// Timeline is a permutation over a plan array.
type Timeline struct {
	order []int
}

// NewTimeline returns the identity ordering for n clips.
func NewTimeline(n int) Timeline {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return Timeline{order: order}
}

// Order returns a copy of the permutation.
func (t Timeline) Order() []int {
	return append([]int(nil), t.order...)
}

// Move removes the entry at from and reinserts it at to. Out-of-range indices
// leave the timeline unchanged and report false.
func (t *Timeline) Move(from, to int) bool {
	n := len(t.order)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	entry := t.order[from]
	rest := append(append(make([]int, 0, n), t.order[:from]...), t.order[from+1:]...)
	next := make([]int, 0, n)
	next = append(next, rest[:to]...)
	next = append(next, entry)
	next = append(next, rest[to:]...)
	t.order = next
	return true
}

// Apply maps the permutation over plans. Entries pointing past the end of
// plans are skipped.
func (t Timeline) Apply(plans []clip.Plan) []clip.Plan {
	out := make([]clip.Plan, 0, len(t.order))
	for _, idx := range t.order {
		if idx < len(plans) {
			out = append(out, plans[idx])
		}
	}
	return out
}

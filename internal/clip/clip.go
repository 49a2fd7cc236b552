package clip

import "strings"

// Status captures the lifecycle state of one generated clip.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusResolved   Status = "resolved"
	StatusError      Status = "error"
)

// MaxFrames bounds the number of frames accepted in one narrative run.
const MaxFrames = 5

// ParseStatus normalizes a stored or transmitted status string. Unknown
// values are treated as pending so they keep being polled.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusProcessing:
		return StatusProcessing
	case StatusResolved:
		return StatusResolved
	case StatusError:
		return StatusError
	default:
		return StatusPending
	}
}

// Frame is one user-selected still image. URL is either an http(s) address or
// an inline data: URL. Ordinal is the 0-based input position.
type Frame struct {
	URL     string
	Ordinal int
}

// Description is the caption produced for one frame.
type Description struct {
	FrameURL string
	Text     string
}

// Instruction is one per-frame cinematography instruction produced by the
// story composer. FrameIndex is 1-based.
type Instruction struct {
	FrameIndex int
	VideoClip  string
}

// Plan is the unit of work and result for one frame: its caption, its clip
// instruction, and the state of the asynchronous generation job.
type Plan struct {
	FrameURL  string `json:"frameUrl"`
	FrameDesc string `json:"frameDesc"`
	VideoClip string `json:"videoClip"`
	TaskID    string `json:"taskId,omitempty"`
	Status    Status `json:"status"`
	VideoURL  string `json:"videoUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Pending reports whether the plan still needs status polling.
func (p Plan) Pending() bool {
	return p.TaskID != "" && p.VideoURL == "" && p.Status != StatusError
}

// Ready reports whether the plan has a playable video.
func (p Plan) Ready() bool {
	return p.VideoURL != ""
}

// Failed reports whether the plan reached a terminal failure.
func (p Plan) Failed() bool {
	return p.Status == StatusError && p.VideoURL == ""
}

// PollResult is one status answer for a task. Err is set when the query itself
// failed and carries no status information.
type PollResult struct {
	TaskID   string `json:"taskId"`
	Status   Status `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
	Err      error  `json:"-"`
}

// Summary counts plans by state.
type Summary struct {
	Total   int
	Ready   int
	Pending int
	Failed  int
}

// Summarize counts ready, pending, and failed plans.
func Summarize(plans []Plan) Summary {
	s := Summary{Total: len(plans)}
	for _, p := range plans {
		switch {
		case p.Ready():
			s.Ready++
		case p.Pending():
			s.Pending++
		case p.Failed():
			s.Failed++
		}
	}
	return s
}

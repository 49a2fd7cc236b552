package api

import (
	"storyreel/internal/clip"
	"storyreel/internal/tasklog"
)

// SubmitRequest is the body of POST /api/narratives.
type SubmitRequest struct {
	Frames []string `json:"frames"`
}

// SubmitResponse carries one plan per accepted frame and the raw story text.
type SubmitResponse struct {
	Frames   []clip.Plan `json:"frames"`
	StoryRaw string      `json:"storyRaw"`
}

// PollResponse is the body of GET /api/clips/{taskId}. VideoURL is null
// until the clip is resolved.
type PollResponse struct {
	TaskID   string      `json:"taskId"`
	Status   clip.Status `json:"status"`
	VideoURL *string     `json:"videoUrl"`
}

// NewPollResponse converts a poll result to its wire form.
func NewPollResponse(res clip.PollResult) PollResponse {
	resp := PollResponse{TaskID: res.TaskID, Status: res.Status}
	if res.VideoURL != "" {
		url := res.VideoURL
		resp.VideoURL = &url
	}
	return resp
}

// Result converts the wire form back to a poll result.
func (p PollResponse) Result() clip.PollResult {
	res := clip.PollResult{TaskID: p.TaskID, Status: clip.ParseStatus(string(p.Status))}
	if p.VideoURL != nil {
		res.VideoURL = *p.VideoURL
	}
	return res
}

// TasksResponse lists the caller's persisted task records, newest first.
type TasksResponse struct {
	Tasks []tasklog.Record `json:"tasks"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	Version      string `json:"version"`
	StartedAt    string `json:"startedAt"`
	TaskLogPath  string `json:"taskLogPath"`
	LockFilePath string `json:"lockFilePath"`
	LLMModel     string `json:"llmModel"`
	VideoModel   string `json:"videoModel"`
	VideoMode    string `json:"videoMode"`
	CacheEnabled bool   `json:"cacheEnabled"`
	AuthEnabled  bool   `json:"authEnabled"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

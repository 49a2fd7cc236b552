package kling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storyreel/internal/clip"
)

const (
	defaultBaseURL     = "https://api-singapore.klingai.com/v1/videos/image2video"
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 512
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	BaseURL        string
	AccessKey      string
	SecretKey      string
	TimeoutSeconds int
}

// Client submits image-to-video jobs and queries their status.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used for token signing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient constructs a provider client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			AccessKey:      strings.TrimSpace(cfg.AccessKey),
			SecretKey:      strings.TrimSpace(cfg.SecretKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// SubmitRequest describes one image-to-video job. Image is an http(s) URL or
// an inline data: URL; inline payloads are sent as bare base64.
type SubmitRequest struct {
	Image     string
	Prompt    string
	ModelName string
	Mode      string
	Duration  string
	CFGScale  float64
}

// Task is the provider's view of a job, normalized to clip statuses.
type Task struct {
	ID             string
	Status         clip.Status
	ProviderStatus string
	Message        string
	VideoURL       string
}

// APIError reports a non-success response from the provider.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("kling: http %d: code %d: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("kling: http %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type submitPayload struct {
	ModelName string  `json:"model_name"`
	Mode      string  `json:"mode"`
	Duration  string  `json:"duration"`
	Image     string  `json:"image"`
	Prompt    string  `json:"prompt"`
	CFGScale  float64 `json:"cfg_scale"`
}

type envelope struct {
	Code      int      `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id"`
	Data      taskData `json:"data"`
}

type taskData struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	TaskResult    struct {
		Videos []struct {
			ID       string `json:"id"`
			URL      string `json:"url"`
			Duration string `json:"duration"`
		} `json:"videos"`
	} `json:"task_result"`
}

// Submit creates one job. Submissions are not retried: a repeated POST would
// create a duplicate billable job.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (Task, error) {
	if strings.TrimSpace(req.Image) == "" {
		return Task{}, errors.New("kling submit: image required")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Task{}, errors.New("kling submit: prompt required")
	}
	body, err := json.Marshal(submitPayload{
		ModelName: req.ModelName,
		Mode:      req.Mode,
		Duration:  req.Duration,
		Image:     imageParam(req.Image),
		Prompt:    req.Prompt,
		CFGScale:  req.CFGScale,
	})
	if err != nil {
		return Task{}, fmt.Errorf("kling submit: encode body: %w", err)
	}
	env, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL, body)
	if err != nil {
		return Task{}, fmt.Errorf("kling submit: %w", err)
	}
	if strings.TrimSpace(env.Data.TaskID) == "" {
		return Task{}, errors.New("kling submit: response missing task_id")
	}
	return toTask(env.Data), nil
}

// Query fetches the current state of a job.
func (c *Client) Query(ctx context.Context, taskID string) (Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return Task{}, errors.New("kling query: task id required")
	}
	endpoint := c.cfg.BaseURL + "/" + url.PathEscape(taskID)
	env, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Task{}, fmt.Errorf("kling query: %w", err)
	}
	task := toTask(env.Data)
	if task.ID == "" {
		task.ID = taskID
	}
	return task, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (envelope, error) {
	var env envelope
	token, err := SignToken(c.cfg.AccessKey, c.cfg.SecretKey, c.now())
	if err != nil {
		return env, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return env, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, fmt.Errorf("read body: %w", err)
	}
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(env.Message)
		if decodeErr != nil || msg == "" {
			msg = truncate(strings.TrimSpace(string(raw)), maxErrorBody)
		}
		return env, &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: msg}
	}
	if decodeErr != nil {
		return env, fmt.Errorf("decode response: %w", decodeErr)
	}
	if env.Code != 0 {
		return env, &APIError{StatusCode: resp.StatusCode, Code: env.Code, Message: strings.TrimSpace(env.Message)}
	}
	return env, nil
}

func toTask(data taskData) Task {
	task := Task{
		ID:             strings.TrimSpace(data.TaskID),
		ProviderStatus: strings.TrimSpace(data.TaskStatus),
		Message:        strings.TrimSpace(data.TaskStatusMsg),
	}
	for _, video := range data.TaskResult.Videos {
		if u := strings.TrimSpace(video.URL); u != "" {
			task.VideoURL = u
			break
		}
	}
	task.Status = NormalizeStatus(task.ProviderStatus, task.VideoURL)
	return task
}

// NormalizeStatus maps provider task states onto clip statuses. A succeeded
// task without a video URL is still reported as processing.
func NormalizeStatus(providerStatus, videoURL string) clip.Status {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "succeed", "succeeded", "success":
		if videoURL == "" {
			return clip.StatusProcessing
		}
		return clip.StatusResolved
	case "failed", "fail":
		return clip.StatusError
	case "processing":
		return clip.StatusProcessing
	default:
		return clip.StatusPending
	}
}

// imageParam strips the data: URL prefix; the provider accepts either a URL or
// raw base64.
func imageParam(image string) string {
	image = strings.TrimSpace(image)
	if !strings.HasPrefix(image, "data:") {
		return image
	}
	if idx := strings.Index(image, ";base64,"); idx >= 0 {
		return image[idx+len(";base64,"):]
	}
	return image
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

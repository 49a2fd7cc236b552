package kling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyreel/internal/clip"
)

func TestSubmitSendsFixedParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer token")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		want := map[string]any{
			"model_name": "kling-v2-5-turbo",
			"mode":       "pro",
			"duration":   "5",
			"image":      "aGVsbG8=",
			"prompt":     "slow dolly in",
			"cfg_scale":  0.5,
		}
		for k, v := range want {
			if body[k] != v {
				t.Errorf("%s = %v, want %v", k, body[k], v)
			}
		}
		_, _ = w.Write([]byte(`{"code":0,"message":"SUCCEED","data":{"task_id":"task-1","task_status":"submitted"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AccessKey: "ak", SecretKey: "sk"})
	task, err := client.Submit(context.Background(), SubmitRequest{
		Image:     "data:image/png;base64,aGVsbG8=",
		Prompt:    "slow dolly in",
		ModelName: "kling-v2-5-turbo",
		Mode:      "pro",
		Duration:  "5",
		CFGScale:  0.5,
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if task.ID != "task-1" || task.Status != clip.StatusPending {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestSubmitSurfacesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":1302,"message":"rate limit"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AccessKey: "ak", SecretKey: "sk"})
	_, err := client.Submit(context.Background(), SubmitRequest{Image: "https://img/1.png", Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestQueryResolvedTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/task-7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"code":0,"data":{"task_id":"task-7","task_status":"succeed","task_result":{"videos":[{"id":"v","url":"https://cdn/v.mp4","duration":"5"}]}}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", AccessKey: "ak", SecretKey: "sk"})
	task, err := client.Query(context.Background(), "task-7")
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if task.Status != clip.StatusResolved || task.VideoURL != "https://cdn/v.mp4" {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestQueryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such task"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, AccessKey: "ak", SecretKey: "sk"})
	_, err := client.Query(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		status, url string
		want        clip.Status
	}{
		{"submitted", "", clip.StatusPending},
		{"processing", "", clip.StatusProcessing},
		{"succeed", "https://v", clip.StatusResolved},
		{"succeed", "", clip.StatusProcessing},
		{"failed", "", clip.StatusError},
		{"", "", clip.StatusPending},
	}
	for _, tc := range cases {
		if got := NormalizeStatus(tc.status, tc.url); got != tc.want {
			t.Fatalf("NormalizeStatus(%q,%q) = %q, want %q", tc.status, tc.url, got, tc.want)
		}
	}
}

package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionHandler(t *testing.T, content string, inspect func(map[string]any)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request: %v", err)
			}
			inspect(body)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestClientDescribeSendsInlineImage(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}
	var sawAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		completionHandler(t, "  A lighthouse at dusk.  ", func(body map[string]any) {
			if body["max_tokens"] != float64(256) {
				t.Errorf("max_tokens = %v", body["max_tokens"])
			}
			messages := body["messages"].([]any)
			parts := messages[0].(map[string]any)["content"].([]any)
			if len(parts) != 2 {
				t.Errorf("expected text and image parts, got %d", len(parts))
				return
			}
			text := parts[0].(map[string]any)
			if text["type"] != "text" || !strings.Contains(text["text"].(string), "storyboard") {
				t.Errorf("unexpected text part: %#v", text)
			}
			img := parts[1].(map[string]any)["image_url"].(map[string]any)
			want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
			if img["url"] != want {
				t.Errorf("image url = %v, want %v", img["url"], want)
			}
		})(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "vision"})
	got, err := client.Describe(context.Background(), "Describe this storyboard frame.", image, "image/png", 256)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if got != "A lighthouse at dusk." {
		t.Fatalf("unexpected description %q", got)
	}
	if sawAuth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", sawAuth)
	}
}

func TestClientCompleteSendsPlainPrompt(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, `[{"frame_index":1,"video_clip":"pan"}]`, func(body map[string]any) {
		messages := body["messages"].([]any)
		if content, ok := messages[0].(map[string]any)["content"].(string); !ok || content != "compose" {
			t.Errorf("unexpected content %#v", messages[0])
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "text"})
	got, err := client.Complete(context.Background(), "compose", 2048)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !strings.HasPrefix(got, "[") {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.Complete(context.Background(), "hi", 10); err == nil {
		t.Fatal("expected missing api key error")
	}
	if _, err := client.Describe(context.Background(), "hi", nil, "", 10); err == nil {
		t.Fatal("expected missing image error")
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		completionHandler(t, "a quiet street", nil)(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Describe(context.Background(), "describe", []byte{1, 2, 3}, "image/jpeg", 0)
	if err != nil {
		t.Fatalf("Describe returned error: %v", err)
	}
	if got != "a quiet street" {
		t.Fatalf("unexpected content %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = "story text"
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Complete(context.Background(), "prompt", 0)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "story text" || calls != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad image"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), "p", 0)
	if err == nil || !strings.Contains(err.Error(), "http 400") {
		t.Fatalf("expected http 400 error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

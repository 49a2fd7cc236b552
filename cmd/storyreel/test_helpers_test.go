package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"storyreel/internal/clip"
	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/narrative"
	"storyreel/internal/services/kling"
	"storyreel/internal/tasklog"
	"storyreel/internal/testsupport"
)

const testToken = "tok-alice"

type recordingPipeline struct {
	mu     sync.Mutex
	frames [][]string
	result narrative.Result
}

func (p *recordingPipeline) Run(_ context.Context, frames []string) (narrative.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, append([]string(nil), frames...))
	if _, err := narrative.ValidateFrames(frames); err != nil {
		return narrative.Result{}, err
	}
	return p.result, nil
}

func (p *recordingPipeline) lastFrames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

type staticProvider struct {
	tasks map[string]kling.Task
}

func (p *staticProvider) Query(_ context.Context, taskID string) (kling.Task, error) {
	task, ok := p.tasks[taskID]
	if !ok {
		return kling.Task{}, &kling.APIError{StatusCode: http.StatusNotFound, Message: "task not found"}
	}
	return task, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *tasklog.Store
	pipeline   *recordingPipeline
	provider   *staticProvider
	server     *httptest.Server
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("STORYREEL_API_TOKEN", "")
	cfg := testsupport.NewConfig(t, testsupport.WithTokens(map[string]string{testToken: "alice"}))
	store := testsupport.MustOpenStore(t, cfg)

	env := &cliTestEnv{
		cfg:   cfg,
		store: store,
		pipeline: &recordingPipeline{result: narrative.Result{
			Plans: []clip.Plan{
				{FrameURL: "https://img/a", FrameDesc: "a lighthouse at dusk", VideoClip: "slow push toward the lamp", TaskID: "t1", Status: clip.StatusPending},
				{FrameURL: "https://img/b", FrameDesc: "waves", VideoClip: "pan across the surf", Status: clip.StatusError, Error: "dispatch: provider rejected request"},
			},
			StoryRaw: `[{"frame_index":1,"video_clip":"slow push toward the lamp"}]`,
		}},
		provider: &staticProvider{tasks: map[string]kling.Task{
			"t1": {ID: "t1", Status: clip.StatusProcessing},
			"t2": {ID: "t2", Status: clip.StatusResolved, VideoURL: "https://cdn/t2.mp4"},
		}},
	}

	d, err := daemon.New(cfg, daemon.Deps{
		Pipeline: env.pipeline,
		Provider: env.provider,
		Store:    store,
		Version:  "test",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	env.server = httptest.NewServer(d.Handler())
	t.Cleanup(env.server.Close)

	env.configPath = filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, env.configPath, cfg, env.server.URL, testToken)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, url, token string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[api]\nurl = %q\ntoken = %q\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		url,
		token,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

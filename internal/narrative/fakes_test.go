package narrative_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storyreel/internal/clip"
	"storyreel/internal/frames"
	"storyreel/internal/services/kling"
	"storyreel/internal/tasklog"
)

type fakeModel struct {
	mu          sync.Mutex
	captions    map[string]string
	describeErr map[string]error
	story       string
	storyErr    error
	describes   int
	prompts     []string
}

func (m *fakeModel) Describe(_ context.Context, _ string, image []byte, _ string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.describes++
	key := string(image)
	if err := m.describeErr[key]; err != nil {
		return "", err
	}
	return "  " + m.captions[key] + "\n", nil
}

func (m *fakeModel) Complete(_ context.Context, prompt string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.story, m.storyErr
}

type fakeResolver struct {
	fail map[string]bool
}

func (r fakeResolver) Resolve(_ context.Context, ref string) (frames.Image, error) {
	if r.fail[ref] {
		return frames.Image{}, errors.New("fetch failed: 404")
	}
	return frames.Image{Data: []byte(ref), MIME: "image/png"}, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []kling.SubmitRequest
	failOn   map[string]error
	status   clip.Status
}

func (p *fakeProvider) Submit(_ context.Context, req kling.SubmitRequest) (kling.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if err := p.failOn[req.Image]; err != nil {
		return kling.Task{}, err
	}
	id := "task-" + strings.TrimPrefix(req.Image, "https://img/")
	return kling.Task{ID: id, Status: p.status}, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []tasklog.Record
}

func (r *fakeRecorder) RecordSubmission(_ context.Context, rec tasklog.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

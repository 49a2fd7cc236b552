package narrative_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
	"storyreel/internal/narrative"
	"storyreel/internal/services"
	"storyreel/internal/testsupport"
)

func newPipeline(t *testing.T, model *fakeModel, resolver fakeResolver, provider *fakeProvider, recorder *fakeRecorder) *narrative.Pipeline {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return narrative.New(cfg, model, resolver, provider, recorder, logging.NewNop())
}

func TestValidateFrames(t *testing.T) {
	got, err := narrative.ValidateFrames([]string{"", "https://img/a", "  ", "https://img/b"})
	if err != nil {
		t.Fatalf("ValidateFrames: %v", err)
	}
	if len(got) != 2 || got[1].URL != "https://img/b" || got[1].Ordinal != 1 {
		t.Fatalf("unexpected frames %+v", got)
	}

	if _, err := narrative.ValidateFrames([]string{"", " "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty list, got %v", err)
	}
	six := []string{"1", "2", "3", "4", "5", "6"}
	if _, err := narrative.ValidateFrames(six); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for six frames, got %v", err)
	}
}

func TestRunRejectsBeforeExternalCalls(t *testing.T) {
	model := &fakeModel{}
	provider := &fakeProvider{}
	p := newPipeline(t, model, fakeResolver{}, provider, &fakeRecorder{})

	_, err := p.Run(context.Background(), nil)
	if services.HTTPStatus(err) != 400 {
		t.Fatalf("expected 400 classification, got %v", err)
	}
	if model.describes != 0 || len(model.prompts) != 0 || len(provider.requests) != 0 {
		t.Fatal("no external calls expected on validation failure")
	}
}

func TestRunEndToEnd(t *testing.T) {
	model := &fakeModel{
		captions: map[string]string{"https://img/A": "desc A", "https://img/B": "desc B", "https://img/C": "desc C"},
		story:    `[{"frame_index":1,"video_clip":"a1"},{"frame_index":3,"video_clip":"a3"}]`,
	}
	provider := &fakeProvider{}
	recorder := &fakeRecorder{}
	p := newPipeline(t, model, fakeResolver{}, provider, recorder)

	ctx := services.WithOwner(context.Background(), "alice")
	res, err := p.Run(ctx, []string{"https://img/A", "https://img/B", "https://img/C"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ParseKind != narrative.ParseStrict || res.StoryRaw != model.story {
		t.Fatalf("unexpected story result %+v", res)
	}
	wantClips := []string{"a1", "5s cinematic shot based on: desc B", "a3"}
	for i, plan := range res.Plans {
		if plan.VideoClip != wantClips[i] {
			t.Fatalf("plan %d clip = %q, want %q", i, plan.VideoClip, wantClips[i])
		}
		if plan.Status != clip.StatusPending || plan.TaskID == "" {
			t.Fatalf("plan %d not dispatched: %+v", i, plan)
		}
	}
	if res.Plans[1].FrameDesc != "desc B" {
		t.Fatalf("caption not trimmed: %q", res.Plans[1].FrameDesc)
	}
	if len(provider.requests) != 3 || provider.requests[0].ModelName != "kling-v2-5-turbo" ||
		provider.requests[0].Mode != "pro" || provider.requests[0].Duration != "5" || provider.requests[0].CFGScale != 0.5 {
		t.Fatalf("unexpected submit requests %+v", provider.requests)
	}
	if len(recorder.records) != 3 || recorder.records[0].Owner != "alice" || recorder.records[2].Prompt != "a3" {
		t.Fatalf("unexpected task records %+v", recorder.records)
	}
}

func TestRunCaptionFailureNamesFrame(t *testing.T) {
	model := &fakeModel{
		captions:    map[string]string{"https://img/A": "a"},
		describeErr: map[string]error{"https://img/B": errors.New("model overloaded")},
	}
	provider := &fakeProvider{}
	p := newPipeline(t, model, fakeResolver{}, provider, &fakeRecorder{})

	_, err := p.Run(context.Background(), []string{"https://img/A", "https://img/B", "https://img/C"})
	if !errors.Is(err, services.ErrUpstreamModel) {
		t.Fatalf("expected upstream model error, got %v", err)
	}
	if !strings.Contains(err.Error(), "frame 2") {
		t.Fatalf("error should name frame 2: %v", err)
	}
	if model.describes != 2 || len(provider.requests) != 0 {
		t.Fatalf("expected abort after frame 2, describes=%d submits=%d", model.describes, len(provider.requests))
	}
}

func TestRunFetchFailureIsUpstreamError(t *testing.T) {
	model := &fakeModel{captions: map[string]string{}}
	p := newPipeline(t, model, fakeResolver{fail: map[string]bool{"https://img/A": true}}, &fakeProvider{}, &fakeRecorder{})
	_, err := p.Run(context.Background(), []string{"https://img/A"})
	if services.HTTPStatus(err) != 502 || !strings.Contains(err.Error(), "frame 1") {
		t.Fatalf("expected 502 naming frame 1, got %v", err)
	}
}

func TestRunStoryFailureAborts(t *testing.T) {
	model := &fakeModel{captions: map[string]string{"https://img/A": "a"}, storyErr: errors.New("timeout")}
	provider := &fakeProvider{}
	p := newPipeline(t, model, fakeResolver{}, provider, &fakeRecorder{})
	if _, err := p.Run(context.Background(), []string{"https://img/A"}); !errors.Is(err, services.ErrUpstreamModel) {
		t.Fatalf("expected upstream model error, got %v", err)
	}
	if len(provider.requests) != 0 {
		t.Fatal("no submissions expected after story failure")
	}
}

func TestDispatchIsolatesFailures(t *testing.T) {
	provider := &fakeProvider{
		failOn: map[string]error{"https://img/B": errors.New("quota exceeded")},
		status: clip.StatusProcessing,
	}
	recorder := &fakeRecorder{}
	cfg := testsupport.NewConfig(t)
	d := narrative.NewDispatcher(provider, recorder, cfg.Video, logging.NewNop())

	plans := narrative.BuildPlans(
		[]clip.Frame{{URL: "https://img/A"}, {URL: "https://img/B", Ordinal: 1}, {URL: "https://img/C", Ordinal: 2}},
		descs("A", "B", "C"),
		[]clip.Instruction{{FrameIndex: 1, VideoClip: "a"}, {FrameIndex: 2, VideoClip: "b"}, {FrameIndex: 3, VideoClip: "c"}},
	)
	got := d.Dispatch(context.Background(), plans)

	if len(got) != 3 || len(provider.requests) != 3 {
		t.Fatalf("expected all clips attempted, got %d plans %d requests", len(got), len(provider.requests))
	}
	if got[1].Status != clip.StatusError || got[1].TaskID != "" || !strings.Contains(got[1].Error, "quota exceeded") {
		t.Fatalf("unexpected failed plan %+v", got[1])
	}
	for _, i := range []int{0, 2} {
		if got[i].Status != clip.StatusProcessing || got[i].TaskID == "" {
			t.Fatalf("plan %d should be dispatched: %+v", i, got[i])
		}
	}
	if len(recorder.records) != 2 || recorder.records[0].Owner != narrative.AnonymousOwner {
		t.Fatalf("expected records only for successful submits, got %+v", recorder.records)
	}
	if plans[1].Status != clip.StatusPending {
		t.Fatal("Dispatch must not mutate its input")
	}
}

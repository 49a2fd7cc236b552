package tasklog_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
	"storyreel/internal/tasklog"
	"storyreel/internal/testsupport"
)

func TestInsertAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	submitted := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Insert(ctx, tasklog.Record{
		TaskID:        "task-1",
		Owner:         "alice",
		Prompt:        "slow dolly in",
		InputImageURL: "https://img/1.png",
		Status:        clip.StatusPending,
		TaskTime:      submitted,
	}); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	rec, err := store.Get(ctx, "task-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.TaskType != tasklog.TaskTypeNarrativeClip {
		t.Fatalf("unexpected task type %q", rec.TaskType)
	}
	if !rec.TaskTime.Equal(submitted) || !rec.StartedAt.Equal(submitted) {
		t.Fatalf("unexpected times %v %v", rec.TaskTime, rec.StartedAt)
	}
	if rec.OutputVideoURL != "" || rec.CompletedAt != nil {
		t.Fatalf("expected no output yet, got %+v", rec)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, tasklog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicateIsNoop(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	rec := tasklog.Record{TaskID: "dup", Owner: "a", Prompt: "first"}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rec.Prompt = "second"
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	got, err := store.Get(ctx, "dup")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Prompt != "first" {
		t.Fatalf("expected original prompt retained, got %q", got.Prompt)
	}
}

func TestUpdateResultNeverOverwritesVideoURL(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if err := store.Insert(ctx, tasklog.Record{TaskID: "t", Owner: "a", Prompt: "p"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := store.UpdateResult(ctx, "t", clip.StatusProcessing, ""); err != nil {
		t.Fatalf("UpdateResult processing: %v", err)
	}
	if err := store.UpdateResult(ctx, "t", clip.StatusResolved, "https://cdn/first.mp4"); err != nil {
		t.Fatalf("UpdateResult resolved: %v", err)
	}
	if err := store.UpdateResult(ctx, "t", clip.StatusProcessing, "https://cdn/second.mp4"); err != nil {
		t.Fatalf("UpdateResult late: %v", err)
	}

	rec, err := store.Get(ctx, "t")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.OutputVideoURL != "https://cdn/first.mp4" {
		t.Fatalf("video url overwritten: %q", rec.OutputVideoURL)
	}
	if rec.Status != clip.StatusResolved {
		t.Fatalf("terminal status downgraded to %q", rec.Status)
	}
	if rec.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}

	if err := store.UpdateResult(ctx, "unknown", clip.StatusResolved, "u"); !errors.Is(err, tasklog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersByOwnerNewestFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, rec := range []tasklog.Record{
		{TaskID: "a1", Owner: "alice", Prompt: "p"},
		{TaskID: "b1", Owner: "bob", Prompt: "p"},
		{TaskID: "a2", Owner: "alice", Prompt: "p"},
	} {
		rec.TaskTime = base.Add(time.Duration(i) * time.Minute)
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert %s: %v", rec.TaskID, err)
		}
	}

	got, err := store.List(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].TaskID != "a2" || got[1].TaskID != "a1" {
		t.Fatalf("unexpected list %+v", got)
	}

	all, err := store.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(all))
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := tasklog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Insert(context.Background(), tasklog.Record{TaskID: "keep", Owner: "a", Prompt: "p"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	if _, err := reopened.Get(context.Background(), "keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

type failingWriter struct {
	inserts int
	updates int
}

func (f *failingWriter) Insert(context.Context, tasklog.Record) error {
	f.inserts++
	return errors.New("disk full")
}

func (f *failingWriter) UpdateResult(context.Context, string, clip.Status, string) error {
	f.updates++
	return errors.New("disk full")
}

func TestRecorderSwallowsFailures(t *testing.T) {
	writer := &failingWriter{}
	rec := tasklog.NewRecorder(writer, logging.NewNop())
	rec.RecordSubmission(context.Background(), tasklog.Record{TaskID: "t"})
	rec.RecordResult(context.Background(), "t", clip.StatusResolved, "u")
	if writer.inserts != 1 || writer.updates != 1 {
		t.Fatalf("expected writes to be attempted, got %+v", writer)
	}

	var nilRecorder *tasklog.Recorder
	nilRecorder.RecordSubmission(context.Background(), tasklog.Record{TaskID: "t"})
	tasklog.NewRecorder(nil, nil).RecordResult(context.Background(), "t", clip.StatusResolved, "u")
}

func TestOpenRejectsForeignSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	db, err := sql.Open("sqlite", cfg.TaskLogPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	_ = db.Close()

	_, err = tasklog.Open(cfg)
	if !errors.Is(err, tasklog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

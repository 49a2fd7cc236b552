package tasklog

import (
	"context"
	"errors"
	"log/slog"

	"storyreel/internal/clip"
	"storyreel/internal/logging"
	"storyreel/internal/services"
)

// Writer is the subset of Store the recorder needs.
type Writer interface {
	Insert(ctx context.Context, rec Record) error
	UpdateResult(ctx context.Context, taskID string, status clip.Status, videoURL string) error
}

// Recorder performs best-effort task log writes: failures are logged and
// never returned to the caller. A nil Recorder is a no-op.
type Recorder struct {
	writer Writer
	logger *slog.Logger
}

// NewRecorder wraps a writer. A nil writer yields a recorder that drops writes.
func NewRecorder(writer Writer, logger *slog.Logger) *Recorder {
	return &Recorder{writer: writer, logger: logging.NewComponentLogger(logger, "tasklog")}
}

// RecordSubmission stores a freshly dispatched task.
func (r *Recorder) RecordSubmission(ctx context.Context, rec Record) {
	if r == nil || r.writer == nil {
		return
	}
	if err := r.writer.Insert(ctx, rec); err != nil {
		r.warn(ctx, "task log insert failed", rec.TaskID, services.Wrap(services.ErrPersistence, "tasklog", "insert", "", err))
	}
}

// RecordResult stores the latest polled status for a task. Unknown task ids
// are ignored; tasks created outside this daemon have no record.
func (r *Recorder) RecordResult(ctx context.Context, taskID string, status clip.Status, videoURL string) {
	if r == nil || r.writer == nil || taskID == "" {
		return
	}
	err := r.writer.UpdateResult(ctx, taskID, status, videoURL)
	if err == nil || errors.Is(err, ErrNotFound) {
		return
	}
	r.warn(ctx, "task log update failed", taskID, services.Wrap(services.ErrPersistence, "tasklog", "update", "", err))
}

func (r *Recorder) warn(ctx context.Context, msg, taskID string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), msg, "tasklog_write_failed",
		logging.String(logging.FieldTaskID, taskID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check the data directory is writable"),
		logging.String(logging.FieldImpact, "task history is incomplete; clip generation is unaffected"),
	)
}

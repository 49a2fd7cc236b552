package tasklog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storyreel/internal/clip"
)

// TaskTypeNarrativeClip tags records created by the narrative dispatcher.
const TaskTypeNarrativeClip = "video_narrative_clip"

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// ErrNotFound is returned when a task id has no record.
var ErrNotFound = errors.New("task record not found")

// Record is one persisted generation task.
type Record struct {
	TaskID         string      `json:"taskId"`
	TaskType       string      `json:"taskType"`
	Owner          string      `json:"owner"`
	Prompt         string      `json:"prompt"`
	InputImageURL  string      `json:"inputImageUrl,omitempty"`
	OutputVideoURL string      `json:"outputVideoUrl,omitempty"`
	Status         clip.Status `json:"status"`
	TaskTime       time.Time   `json:"taskTime"`
	StartedAt      time.Time   `json:"startedAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty"`
}

const recordColumns = "task_id, task_type, owner, prompt, input_image_url, output_video_url, status, task_time, started_at, updated_at, completed_at"

// Insert stores a new record. Re-inserting an existing task id is a no-op.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.TaskID) == "" {
		return errors.New("insert task record: task id required")
	}
	now := time.Now().UTC()
	if rec.TaskTime.IsZero() {
		rec.TaskTime = now
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.TaskTime
	}
	if rec.TaskType == "" {
		rec.TaskType = TaskTypeNarrativeClip
	}
	if rec.Status == "" {
		rec.Status = clip.StatusPending
	}
	_, err := s.exec(
		ctx,
		`INSERT INTO generation_tasks (`+recordColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(task_id) DO NOTHING`,
		rec.TaskID,
		rec.TaskType,
		rec.Owner,
		rec.Prompt,
		nullableString(rec.InputImageURL),
		nullableString(rec.OutputVideoURL),
		string(rec.Status),
		formatTime(rec.TaskTime),
		formatTime(rec.StartedAt),
		formatTime(now),
		nullableTime(rec.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert task record: %w", err)
	}
	return nil
}

// UpdateResult records the latest polled status. A stored video URL is never
// replaced, and a terminal status is never downgraded.
func (s *Store) UpdateResult(ctx context.Context, taskID string, status clip.Status, videoURL string) error {
	now := formatTime(time.Now().UTC())
	var completed any
	if status == clip.StatusResolved || status == clip.StatusError {
		completed = now
	}
	res, err := s.exec(
		ctx,
		`UPDATE generation_tasks SET
            output_video_url = COALESCE(output_video_url, ?),
            status = CASE WHEN status IN ('resolved', 'error') THEN status ELSE ? END,
            completed_at = COALESCE(completed_at, ?),
            updated_at = ?
        WHERE task_id = ?`,
		nullableString(videoURL),
		string(status),
		completed,
		now,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("update task record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the record for a task id.
func (s *Store) Get(ctx context.Context, taskID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM generation_tasks WHERE task_id = ?", taskID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns records newest first. An empty owner lists every owner.
func (s *Store) List(ctx context.Context, owner string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := "SELECT " + recordColumns + " FROM generation_tasks"
	args := []any{}
	if owner != "" {
		query += " WHERE owner = ?"
		args = append(args, owner)
	}
	query += " ORDER BY task_time DESC, task_id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list task records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec          Record
		status       string
		inputURL     sql.NullString
		outputURL    sql.NullString
		taskTime     string
		startedAt    string
		updatedAt    string
		completedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.TaskID,
		&rec.TaskType,
		&rec.Owner,
		&rec.Prompt,
		&inputURL,
		&outputURL,
		&status,
		&taskTime,
		&startedAt,
		&updatedAt,
		&completedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = clip.ParseStatus(status)
	rec.InputImageURL = inputURL.String
	rec.OutputVideoURL = outputURL.String
	rec.TaskTime = parseTime(taskTime)
	rec.StartedAt = parseTime(startedAt)
	rec.UpdatedAt = parseTime(updatedAt)
	if completedRaw.Valid && completedRaw.String != "" {
		ts := parseTime(completedRaw.String)
		rec.CompletedAt = &ts
	}
	return &rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil || value.IsZero() {
		return nil
	}
	return formatTime(*value)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

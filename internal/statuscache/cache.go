package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"storyreel/internal/clip"
)

const keyPrefix = "clip:status:"

// Cache stores poll results keyed by task id.
type Cache interface {
	Get(ctx context.Context, taskID string) (clip.PollResult, bool, error)
	Set(ctx context.Context, result clip.PollResult) error
	Close() error
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis is a Cache backed by a Redis server.
type Redis struct {
	kv     kv
	client *redis.Client
	ttl    time.Duration
}

type entry struct {
	Status   clip.Status `json:"status"`
	VideoURL string      `json:"videoUrl,omitempty"`
}

// Connect dials Redis and verifies the connection with PING.
func Connect(ctx context.Context, opts Options) (*Redis, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{kv: client, client: client, ttl: opts.TTL}, nil
}

func key(taskID string) string {
	return keyPrefix + taskID
}

// Get returns the cached result for taskID. A miss reports false with no error.
func (r *Redis) Get(ctx context.Context, taskID string) (clip.PollResult, bool, error) {
	data, err := r.kv.Get(ctx, key(taskID)).Result()
	if errors.Is(err, redis.Nil) {
		return clip.PollResult{}, false, nil
	}
	if err != nil {
		return clip.PollResult{}, false, fmt.Errorf("cache get %s: %w", taskID, err)
	}
	var e entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return clip.PollResult{}, false, fmt.Errorf("cache decode %s: %w", taskID, err)
	}
	return clip.PollResult{TaskID: taskID, Status: e.Status, VideoURL: e.VideoURL}, true, nil
}

// Set stores result under its task id for the configured TTL. A zero TTL keeps
// the key until evicted.
func (r *Redis) Set(ctx context.Context, result clip.PollResult) error {
	if result.TaskID == "" {
		return errors.New("cache set: task id required")
	}
	data, err := json.Marshal(entry{Status: result.Status, VideoURL: result.VideoURL})
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, key(result.TaskID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", result.TaskID, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Disabled is a Cache that never hits and drops writes.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (clip.PollResult, bool, error) {
	return clip.PollResult{}, false, nil
}

func (Disabled) Set(context.Context, clip.PollResult) error { return nil }

func (Disabled) Close() error { return nil }

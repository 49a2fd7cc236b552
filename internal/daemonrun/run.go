// Package daemonrun wires configuration into a running storyreeld process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"storyreel/internal/config"
	"storyreel/internal/daemon"
	"storyreel/internal/frames"
	"storyreel/internal/logging"
	"storyreel/internal/narrative"
	"storyreel/internal/preflight"
	"storyreel/internal/services"
	"storyreel/internal/services/kling"
	"storyreel/internal/services/llm"
	"storyreel/internal/statuscache"
	"storyreel/internal/tasklog"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	Version  string
}

// Run starts the storyreel daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateDaemon(); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "validate config", "", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "ensure directories", "", err)
	}
	if failed := preflight.Failed(preflight.RunDaemon(cfg)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "daemon", "preflight", preflight.Summarize(failed), nil)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	logger, err := logging.NewFromConfig(cfg, "storyreeld.log")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "storyreeld.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := tasklog.Open(cfg)
	if err != nil {
		logger.Error("open task log", logging.Error(err))
		return err
	}

	cache := connectCache(signalCtx, cfg, logger)
	recorder := tasklog.NewRecorder(store, logger)
	provider := kling.NewClient(kling.Config{
		BaseURL:        cfg.Video.BaseURL,
		AccessKey:      cfg.Video.AccessKey,
		SecretKey:      cfg.Video.SecretKey,
		TimeoutSeconds: cfg.Video.TimeoutSeconds,
	})
	model := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	resolver := frames.NewResolver(frames.Options{
		FetchTimeout: time.Duration(cfg.Frames.FetchTimeoutSeconds) * time.Second,
		MaxBytes:     cfg.Frames.MaxBytes,
		MaxDimension: cfg.Frames.MaxDimension,
	})
	pipeline := narrative.New(cfg, model, resolver, provider, recorder, logger)

	d, err := daemon.New(cfg, daemon.Deps{
		Pipeline: pipeline,
		Provider: provider,
		Store:    store,
		Cache:    cache,
		Version:  opts.Version,
	}, logger)
	if err != nil {
		_ = cache.Close()
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	logConfigSnapshot(logger, cfg, cache)
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check api.bind and that no other storyreeld is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("storyreel daemon shutting down")
	return nil
}

func connectCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) statuscache.Cache {
	addr := strings.TrimSpace(cfg.Cache.RedisAddr)
	if addr == "" {
		return statuscache.Disabled{}
	}
	cache, err := statuscache.Connect(ctx, statuscache.Options{
		Addr:     addr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
		TTL:      time.Duration(cfg.Cache.ResolvedTTLSeconds) * time.Second,
	})
	if err != nil {
		logging.WarnWithContext(logger, "status cache unavailable", "status_cache_unavailable",
			logging.String("redis_addr", addr),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "start Redis or clear cache.redis_addr"),
			logging.String(logging.FieldImpact, "every status poll queries the video provider"),
		)
		return statuscache.Disabled{}
	}
	return cache
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config, cache statuscache.Cache) {
	_, cacheDisabled := cache.(statuscache.Disabled)
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("api_bind", cfg.API.Bind),
		logging.Int("api_tokens", len(cfg.API.Tokens)),
		logging.String("llm_model", cfg.LLM.Model),
		logging.String("video_model", cfg.Video.ModelName),
		logging.String("video_mode", cfg.Video.Mode),
		logging.Bool("status_cache", !cacheDisabled),
		logging.Int("frame_max_dimension", cfg.Frames.MaxDimension),
	)
}

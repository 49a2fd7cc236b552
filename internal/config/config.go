package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains daemon bind settings and the client connection used by the CLI.
type API struct {
	Bind                string            `toml:"bind"`
	URL                 string            `toml:"url"`
	Token               string            `toml:"token"`
	WriteTimeoutSeconds int               `toml:"write_timeout_seconds"`
	Tokens              map[string]string `toml:"tokens"`
}

// LLM contains the vision/text model connection settings.
type LLM struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	Referer          string `toml:"referer"`
	Title            string `toml:"title"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	CaptionMaxTokens int    `toml:"caption_max_tokens"`
	StoryMaxTokens   int    `toml:"story_max_tokens"`
}

// Video contains the image-to-video provider settings. Generation parameters
// are fixed per deployment rather than per request.
type Video struct {
	BaseURL        string  `toml:"base_url"`
	AccessKey      string  `toml:"access_key"`
	SecretKey      string  `toml:"secret_key"`
	ModelName      string  `toml:"model_name"`
	Mode           string  `toml:"mode"`
	Duration       string  `toml:"duration"`
	CFGScale       float64 `toml:"cfg_scale"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Frames contains frame resolution limits applied before captioning.
type Frames struct {
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
	MaxBytes            int `toml:"max_bytes"`
	MaxDimension        int `toml:"max_dimension"`
}

// Cache contains the optional Redis status cache settings. An empty address
// disables caching.
type Cache struct {
	RedisAddr          string `toml:"redis_addr"`
	RedisPassword      string `toml:"redis_password"`
	RedisDB            int    `toml:"redis_db"`
	ResolvedTTLSeconds int    `toml:"resolved_ttl_seconds"`
}

// Poll contains client-side status polling settings.
type Poll struct {
	IntervalSeconds int `toml:"interval_seconds"`
	TimeoutSeconds  int `toml:"timeout_seconds"`
}

// Player contains the external media player used for combined playback.
type Player struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storyreel.
//
// Configuration sections by subsystem:
//   - Paths: data (task log, lock file) and log directories
//   - API: daemon bind address, client URL, and bearer tokens
//   - LLM: vision/text model used for captions and story composition
//   - Video: image-to-video provider credentials and fixed parameters
//   - Frames: frame fetch limits and downscale size
//   - Cache: optional Redis cache for resolved clip statuses
//   - Poll: client polling interval and watchdog
//   - Player: external player for combined playback
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	API     API     `toml:"api"`
	LLM     LLM     `toml:"llm"`
	Video   Video   `toml:"video"`
	Frames  Frames  `toml:"frames"`
	Cache   Cache   `toml:"cache"`
	Poll    Poll    `toml:"poll"`
	Player  Player  `toml:"player"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded first; variables already present in the environment win.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TaskLogPath returns the SQLite database backing the task log.
func (c *Config) TaskLogPath() string {
	return filepath.Join(c.Paths.DataDir, "tasks.db")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "storyreeld.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy with credentials masked, suitable for display.
func (c Config) Redacted() Config {
	out := c
	out.API.Token = redact(c.API.Token)
	out.LLM.APIKey = redact(c.LLM.APIKey)
	out.Video.AccessKey = redact(c.Video.AccessKey)
	out.Video.SecretKey = redact(c.Video.SecretKey)
	out.Cache.RedisPassword = redact(c.Cache.RedisPassword)
	if len(c.API.Tokens) > 0 {
		out.API.Tokens = make(map[string]string, len(c.API.Tokens))
		for token, owner := range c.API.Tokens {
			out.API.Tokens[redact(token)] = owner
		}
	}
	return out
}

package testsupport

import (
	"path/filepath"
	"testing"

	"storyreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test"
	cfg.Video.AccessKey = "ak"
	cfg.Video.SecretKey = "sk"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTokens installs an API token table on the test config.
func WithTokens(tokens map[string]string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.API.Tokens = tokens
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is structurally usable by both the CLI
// and the daemon.
func (c *Config) Validate() error {
	if err := ensurePositiveMap(map[string]int{
		"api.write_timeout_seconds":    c.API.WriteTimeoutSeconds,
		"llm.timeout_seconds":          c.LLM.TimeoutSeconds,
		"llm.caption_max_tokens":       c.LLM.CaptionMaxTokens,
		"llm.story_max_tokens":         c.LLM.StoryMaxTokens,
		"video.timeout_seconds":        c.Video.TimeoutSeconds,
		"frames.fetch_timeout_seconds": c.Frames.FetchTimeoutSeconds,
		"frames.max_bytes":             c.Frames.MaxBytes,
		"poll.interval_seconds":        c.Poll.IntervalSeconds,
	}); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if c.Frames.MaxDimension < 0 {
		return errors.New("frames.max_dimension must be zero (disabled) or positive")
	}
	if c.Poll.TimeoutSeconds < 0 {
		return errors.New("poll.timeout_seconds must be zero (disabled) or positive")
	}
	if c.Cache.ResolvedTTLSeconds < 0 {
		return errors.New("cache.resolved_ttl_seconds must not be negative")
	}
	return nil
}

// ValidateDaemon checks the credentials the daemon needs to reach the model
// and video providers.
func (c *Config) ValidateDaemon() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set LLM_API_KEY env var or edit %s (create with 'storyreel config init')", defaultPath)
	}
	if c.Video.AccessKey == "" || c.Video.SecretKey == "" {
		return fmt.Errorf("video.access_key and video.secret_key are required. Set KLING_ACCESS_KEY/KLING_SECRET_KEY or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.url must be an absolute URL, got %q", c.API.URL)
	}
	for token, owner := range c.API.Tokens {
		if owner == "" {
			return fmt.Errorf("api.tokens entry %q must map to a non-empty owner", redact(token))
		}
	}
	return nil
}

func (c *Config) validateVideo() error {
	switch c.Video.Mode {
	case "std", "pro":
	default:
		return fmt.Errorf("video.mode must be std or pro, got %q", c.Video.Mode)
	}
	if c.Video.CFGScale < 0 || c.Video.CFGScale > 1 {
		return errors.New("video.cfg_scale must be between 0 and 1")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func redact(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return token[:2] + strings.Repeat("*", len(token)-4) + token[len(token)-2:]
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLLM()
	c.normalizeVideo()
	c.normalizeCache()
	c.normalizePlayer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")
	if c.API.URL == "" {
		c.API.URL = defaultAPIURL
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("STORYREEL_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	if len(c.API.Tokens) > 0 {
		cleaned := make(map[string]string, len(c.API.Tokens))
		for token, owner := range c.API.Tokens {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			cleaned[token] = strings.TrimSpace(owner)
		}
		c.API.Tokens = cleaned
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("LLM_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.LLM.Model = strings.TrimSpace(value)
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
}

func (c *Config) normalizeVideo() {
	c.Video.AccessKey = strings.TrimSpace(c.Video.AccessKey)
	if c.Video.AccessKey == "" {
		if value, ok := os.LookupEnv("KLING_ACCESS_KEY"); ok {
			c.Video.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Video.SecretKey = strings.TrimSpace(c.Video.SecretKey)
	if c.Video.SecretKey == "" {
		if value, ok := os.LookupEnv("KLING_SECRET_KEY"); ok {
			c.Video.SecretKey = strings.TrimSpace(value)
		}
	}
	c.Video.BaseURL = strings.TrimRight(strings.TrimSpace(c.Video.BaseURL), "/")
	if c.Video.BaseURL == "" {
		c.Video.BaseURL = defaultVideoBaseURL
	}
	c.Video.ModelName = strings.TrimSpace(c.Video.ModelName)
	if c.Video.ModelName == "" {
		c.Video.ModelName = defaultVideoModelName
	}
	c.Video.Mode = strings.ToLower(strings.TrimSpace(c.Video.Mode))
	if c.Video.Mode == "" {
		c.Video.Mode = defaultVideoMode
	}
	c.Video.Duration = strings.TrimSpace(c.Video.Duration)
	if c.Video.Duration == "" {
		c.Video.Duration = defaultVideoDuration
	}
}

func (c *Config) normalizeCache() {
	c.Cache.RedisAddr = strings.TrimSpace(c.Cache.RedisAddr)
	if c.Cache.RedisAddr == "" {
		if value, ok := os.LookupEnv("REDIS_ADDR"); ok {
			c.Cache.RedisAddr = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePlayer() {
	c.Player.Command = strings.TrimSpace(c.Player.Command)
	if c.Player.Command == "" {
		c.Player.Command = defaultPlayerCommand
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

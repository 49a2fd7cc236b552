package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"storyreel/internal/api"
	"storyreel/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.API.URL, cfg.API.Token, nil)
}

// wrapAPIError turns connection failures into an actionable message.
func (c *commandContext) wrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if api.IsAPIUnavailable(err) {
		url := ""
		if c.config != nil {
			url = c.config.API.URL
		}
		return fmt.Errorf("connect to daemon at %s: %w; start it with `storyreeld`", url, err)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

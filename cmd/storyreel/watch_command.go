package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/logging"
	"storyreel/internal/reel"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <result.json>",
		Short: "Follow clip progress, reorder clips, and play the reel",
		Long: "Open an interactive view over a saved submit result. Pending clips are\n" +
			"polled until they resolve. Clips can be reordered and played back to back\n" +
			"with the configured player. Regenerating resubmits the same frames and\n" +
			"overwrites the result file.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadResult(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			return runWatch(cmd, cfg, client, result, args[0])
		},
	}
}

// runWatch drives the reel view. resultPath, when set, receives regenerated
// results.
func runWatch(cmd *cobra.Command, cfg *config.Config, client *api.Client, result savedResult, resultPath string) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("watch requires an interactive terminal")
	}

	logger, err := watchLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session := reel.NewSession()
	session.Load(result.Frames, result.StoryRaw, result.SubmittedAt)

	poller := reel.NewPoller(session, client, reel.PollerOptions{
		Interval: time.Duration(cfg.Poll.IntervalSeconds) * time.Second,
		Timeout:  time.Duration(cfg.Poll.TimeoutSeconds) * time.Second,
	}, logger)
	go func() {
		_ = poller.Run(ctx)
	}()

	player := reel.ExecPlayer{Command: cfg.Player.Command, Args: cfg.Player.Args}
	playback := reel.NewPlayback(session, player, logger)
	defer playback.Stop()

	model := newWatchModel(ctx, session, playback)
	model.submitter = client
	model.resultPath = resultPath
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return fmt.Errorf("watch requires an interactive terminal: %w", err)
		}
		return err
	}
	return nil
}

// watchLogger writes to a file so log lines never corrupt the alt screen.
func watchLogger(cfg *config.Config) (*slog.Logger, error) {
	if strings.TrimSpace(cfg.Paths.LogDir) == "" {
		return logging.NewNop(), nil
	}
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{filepath.Join(cfg.Paths.LogDir, "storyreel-watch.log")},
		ErrorOutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "storyreel-watch.log")},
	})
}

package reel

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Player plays one video and blocks until it ends.
type Player interface {
	Play(ctx context.Context, url string) error
}

// ExecPlayer runs an external media player once per clip.
type ExecPlayer struct {
	Command string
	Args    []string
}

// Play launches the player with url as the final argument.
func (p ExecPlayer) Play(ctx context.Context, url string) error {
	command := strings.TrimSpace(p.Command)
	if command == "" {
		return errors.New("player command not configured")
	}
	args := append(append([]string(nil), p.Args...), url)
	cmd := exec.CommandContext(ctx, command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

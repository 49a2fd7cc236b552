package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			status, err := client.Status(cmd.Context())
			if err != nil {
				if !api.IsAPIUnavailable(err) {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, api.DaemonStatus{Running: false})
				}
				for _, line := range renderSectionHeader("Storyreel", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", statusError, "Not running", colorize))
				fmt.Fprintln(out, playerStatusLine(cfg, colorize))
				return nil
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			for _, line := range daemonStatusLines(status, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, playerStatusLine(cfg, colorize))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	return cmd
}

func daemonStatusLines(status api.DaemonStatus, colorize bool) []string {
	lines := renderSectionHeader("Storyreel", colorize)
	if !status.Running {
		return append(lines, renderStatusLine("Daemon", statusError, "Not running", colorize))
	}
	running := "Running"
	if status.PID > 0 {
		running += " (pid " + strconv.Itoa(status.PID) + ")"
	}
	lines = append(lines,
		renderStatusLine("Daemon", statusOK, running, colorize),
		renderStatusLine("Version", statusInfo, status.Version, colorize),
		renderStatusLine("LLM model", statusInfo, status.LLMModel, colorize),
		renderStatusLine("Video model", statusInfo, fmt.Sprintf("%s (%s)", status.VideoModel, status.VideoMode), colorize),
	)
	if status.CacheEnabled {
		lines = append(lines, renderStatusLine("Status cache", statusOK, "Redis", colorize))
	} else {
		lines = append(lines, renderStatusLine("Status cache", statusWarn, "Disabled", colorize))
	}
	if status.AuthEnabled {
		lines = append(lines, renderStatusLine("Auth", statusOK, "Bearer tokens", colorize))
	} else {
		lines = append(lines, renderStatusLine("Auth", statusWarn, "Disabled (anonymous)", colorize))
	}
	if status.TaskLogPath != "" {
		lines = append(lines, renderStatusLine("Task log", statusInfo, status.TaskLogPath, colorize))
	}
	return lines
}

// playerStatusLine reports the local playback command. Playback runs on this
// machine, not on the daemon host.
func playerStatusLine(cfg *config.Config, colorize bool) string {
	status := preflight.CheckPlayer(cfg)
	if status.Available {
		return renderStatusLine("Player", statusOK, status.Path, colorize)
	}
	return renderStatusLine("Player", statusWarn, status.Detail, colorize)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyreel/internal/api"
)

func newPollCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "poll <taskId>",
		Short: "Query the status of one clip generation task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := strings.TrimSpace(args[0])
			if taskID == "" {
				return fmt.Errorf("task id is required")
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			res, err := client.Poll(cmd.Context(), taskID)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, api.NewPollResponse(res))
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintf(out, "Task:   %s\n", res.TaskID)
			fmt.Fprintf(out, "Status: %s\n", clipStatusLabel(res.Status, colorize))
			if res.VideoURL != "" {
				fmt.Fprintf(out, "Video:  %s\n", res.VideoURL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the response as JSON")
	return cmd
}

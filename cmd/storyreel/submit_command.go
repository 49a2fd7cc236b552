package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storyreel/internal/clip"
	"storyreel/internal/frames"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		watch      bool
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "submit <frame>...",
		Short: "Submit 1-5 frames and start clip generation",
		Long: "Submit storyboard frames to the daemon. Each frame may be an http(s) URL,\n" +
			"a data: URL, or a local image path. The daemon captions the frames,\n" +
			"composes a story, and starts one video clip per frame.",
		Args: cobra.RangeArgs(1, clip.MaxFrames),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs := make([]string, 0, len(args))
			for _, arg := range args {
				ref, err := frames.FromArg(arg)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Submit(cmd.Context(), refs)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			result := savedResult{SubmitResponse: resp, SubmittedAt: time.Now()}

			path := strings.TrimSpace(outPath)
			if path != "" {
				if err := saveResult(path, result); err != nil {
					return err
				}
			}
			if watch {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				return runWatch(cmd, cfg, client, result, path)
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderPlanTable(resp.Frames, shouldColorize(out)))
			fmt.Fprintln(out)
			if path != "" {
				fmt.Fprintf(out, "Saved result to %s; run `storyreel watch %s` to follow progress\n", path, path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw response as JSON")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Open the interactive reel view after submitting")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Save the response to a file for later `watch`")
	return cmd
}

func renderPlanTable(plans []clip.Plan, colorize bool) string {
	rows := make([][]string, 0, len(plans))
	for i, plan := range plans {
		detail := plan.VideoClip
		if plan.Error != "" {
			detail = plan.Error
		}
		taskID := plan.TaskID
		if taskID == "" {
			taskID = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			taskID,
			clipStatusLabel(plan.Status, colorize),
			truncate(plan.FrameDesc, 40),
			truncate(detail, 60),
		})
	}
	return renderTable([]tableColumn{
		{Header: "#", Align: alignRight},
		{Header: "Task"},
		{Header: "Status"},
		{Header: "Frame", MaxWidth: 40},
		{Header: "Clip", MaxWidth: 60},
	}, rows)
}


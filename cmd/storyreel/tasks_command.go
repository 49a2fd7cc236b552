package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyreel/internal/tasklog"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List recent clip generation tasks for your token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			records, err := client.Tasks(cmd.Context(), limit)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No tasks recorded")
				return nil
			}
			fmt.Fprint(out, renderTaskTable(records, shouldColorize(out)))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", tasklog.DefaultListLimit, "Maximum number of tasks to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print tasks as JSON")
	return cmd
}

func renderTaskTable(records []tasklog.Record, colorize bool) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		video := rec.OutputVideoURL
		if video == "" {
			video = "-"
		}
		rows = append(rows, []string{
			rec.TaskID,
			clipStatusLabel(rec.Status, colorize),
			rec.TaskTime.Local().Format("2006-01-02 15:04"),
			truncate(rec.Prompt, 48),
			video,
		})
	}
	return renderTable([]tableColumn{
		{Header: "Task"},
		{Header: "Status"},
		{Header: "Submitted"},
		{Header: "Prompt", MaxWidth: 48},
		{Header: "Video"},
	}, rows)
}

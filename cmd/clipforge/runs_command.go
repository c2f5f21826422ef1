package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/registry"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var videoID string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), videoID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortRunID(run.ID),
					run.VideoID,
					string(run.Status),
					fmt.Sprintf("%d/%d", run.ClipsRendered, run.ClipsRequested),
					run.StartedAt.Local().Format(time.DateTime),
					run.ErrorMessage,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Video", "Status", "Clips", "Started", "Note"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%s runs\n", strconv.Itoa(len(runs)))
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "video", "", "Only show runs for this video id")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

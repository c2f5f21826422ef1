package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
	"clipforge/internal/registry"
)

func runPipeline(cmd *cobra.Command, cfg *config.Config, url string, k int) error {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}

	store, err := registry.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p := pipeline.New(cfg, logger, pipeline.WithStore(store))
	outcome, err := p.Run(cmd.Context(), url, k)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	report := outcome.Report
	if report.Rendered == report.Requested {
		fmt.Fprintf(out, "Pipeline succeeded: %d clips\n", report.Rendered)
	} else {
		fmt.Fprintf(out, "Pipeline succeeded with %d of %d clips\n", report.Rendered, report.Requested)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", warning)
	}

	if len(report.Clips) > 0 {
		rows := make([][]string, 0, len(report.Clips))
		for _, clip := range report.Clips {
			rows = append(rows, []string{
				strconv.Itoa(clip.Rank),
				clip.WindowID,
				fmt.Sprintf("%.1fs - %.1fs", clip.Start, clip.End),
				fmt.Sprintf("%.3f", clip.Scores.Final),
				strconv.Itoa(clip.WordCount),
				filepath.Base(clip.FilePath),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Rank", "Window", "Range", "Score", "Words", "File"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	fmt.Fprintf(out, "Report: %s\n", outcome.ReportPath)
	fmt.Fprintf(out, "Scores: %s\n", outcome.CSVPath)
	for _, windowID := range outcome.FailedWindows {
		fmt.Fprintf(out, "  render failed: %s\n", windowID)
	}
	return nil
}

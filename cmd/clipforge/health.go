package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/config"
	"clipforge/internal/preflight"
)

func runHealthCheck(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	results := preflight.RunAll(cmd.Context(), cfg)
	for _, line := range renderSectionHeader("Readiness", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}

	if !preflight.AllPassed(results) {
		return errors.New("one or more readiness checks failed")
	}
	fmt.Fprintln(out, "All checks passed")
	return nil
}

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ytdb/internal/deps"
	"ytdb/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Show external dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			fmt.Fprintln(out, "Dependencies")
			renderDependencyLines(out, statuses, shouldColorize(out))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}
}

func renderDependencyLines(out io.Writer, statuses []deps.Status, colorize bool) {
	for _, status := range statuses {
		kind := statusOK
		message := status.Version
		if message == "" {
			message = "available"
		}
		if !status.Available {
			kind = statusError
			if status.Optional {
				kind = statusWarn
			}
			message = status.Detail
			if message == "" {
				message = "not found"
			}
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
	}
}

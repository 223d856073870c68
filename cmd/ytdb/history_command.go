package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytdb/internal/contentid"
	"ytdb/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		idFlag string
		runID  string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded download attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfg.Paths.JournalPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "No attempts recorded.")
				return nil
			}

			js, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return err
			}
			defer js.Close()

			filter := journal.Filter{RunID: strings.TrimSpace(runID), Limit: limit}
			if strings.TrimSpace(idFlag) != "" {
				filter.ContentID = contentid.Normalize(idFlag).String()
			}
			attempts, err := js.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No attempts recorded.")
				return nil
			}

			rows := make([][]string, 0, len(attempts))
			for _, attempt := range attempts {
				rows = append(rows, []string{
					attempt.StartedAt.Local().Format("2006-01-02 15:04:05"),
					attempt.ContentID,
					attempt.Target,
					humanLabel(attempt.Outcome),
					attempt.Kind,
					attempt.Duration().Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"Started", "ID", "Target", "Outcome", "Kind", "Duration"},
				aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				rows:    rows,
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&idFlag, "id", "", "Only show attempts for this id")
	cmd.Flags().StringVar(&runID, "run", "", "Only show attempts from this run")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of attempts to show (0 for all)")
	return cmd
}

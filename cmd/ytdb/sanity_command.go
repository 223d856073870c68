package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytdb/internal/audit"
	"ytdb/internal/config"
)

func newSanityCheckCommand(ctx *commandContext) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:     "sanity_check [root]",
		Aliases: []string{"sanity-check", "audit"},
		Short:   "Audit a store for items that disagree with their manifest",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.OutputDir
			if len(args) == 1 {
				if root, err = config.ExpandPath(args[0]); err != nil {
					return fmt.Errorf("resolve root: %w", err)
				}
			}
			target := cfg.Paths.ReportFile
			if strings.TrimSpace(reportPath) != "" {
				if target, err = config.ExpandPath(reportPath); err != nil {
					return fmt.Errorf("resolve report path: %w", err)
				}
			}

			report, err := audit.Run(cmd.Context(), root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(report.Findings) > 0 {
				rows := make([][]string, 0, len(report.Findings))
				for _, finding := range report.Findings {
					rows = append(rows, []string{finding.ID.String(), humanLabel(string(finding.Reason)), finding.Detail})
				}
				fmt.Fprintln(out, renderTable(tableSpec{
					title:   "Inconsistent items under " + root,
					headers: []string{"ID", "Reason", "Detail"},
					rows:    rows,
				}))
			}
			fmt.Fprintf(out, "Checked %d items.\n", report.Checked)
			fmt.Fprintf(out, "Found %d inconsistent items.\n", len(report.Findings))

			if err := audit.WriteReport(target, report); err != nil {
				return err
			}
			if len(report.Findings) > 0 {
				fmt.Fprintf(out, "Report written to %s\n", target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Report file for inconsistent ids (default paths.report_file)")
	return cmd
}

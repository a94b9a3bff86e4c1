package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tana/tana/internal/library/audit"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var xlsxPath string
	var issuesOnly bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check every series folder for gaps, duplicates and naming issues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.newLogger(cfg, cmd.ErrOrStderr(), false)
			lib := newLibrary(cfg, log.Logger)

			report, err := lib.audit.Run(cmd.Context())
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := writeReportFile(report, xlsxPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote audit spreadsheet to %s\n", xlsxPath)
			}

			if issuesOnly {
				filtered := *report
				filtered.Series = report.WithIssues()
				report = &filtered
			}

			if asJSON || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Series", "Destination", "Files", "Tomes", "Missing", "Duplicates", "Naming"},
				auditRows(report.Series),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))

			s := report.Summary
			fmt.Fprintf(out, "%d series, %d with gaps, %d with naming issues, %d empty, %d single-file, %d with duplicates\n",
				s.TotalSeries, s.SeriesWithGaps, s.SeriesWithNamingIssues, s.EmptyFolders, s.SingleFileSeries, s.DuplicateTomes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also write the report to this spreadsheet")
	cmd.Flags().BoolVar(&issuesOnly, "issues-only", false, "Only list folders with issues")
	return cmd
}

func auditRows(findings []audit.Finding) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		dups := make([]int, 0, len(f.DuplicateTomes))
		for _, d := range f.DuplicateTomes {
			dups = append(dups, d.Tome)
		}
		rows = append(rows, []string{
			f.SeriesName,
			f.Label,
			strconv.Itoa(f.FileCount),
			intList(f.Tomes),
			intList(f.MissingTomes),
			intList(dups),
			strconv.Itoa(len(f.NamingIssues)),
		})
	}
	return rows
}

func writeReportFile(report *audit.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create spreadsheet: %w", err)
	}
	if err := audit.WriteXLSX(report, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tana/tana/internal/database"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/organizer"
)

func newFixCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Rename files whose names do not follow their destination template",
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

			proposals := report.FixProposals()
			out := cmd.OutOrStdout()
			if len(proposals) == 0 {
				fmt.Fprintln(out, "Nothing to fix")
				return nil
			}

			if dryRun {
				if !isTerminal(out) {
					return writeJSON(cmd, proposals)
				}
				rows := make([][]string, 0, len(proposals))
				for _, p := range proposals {
					rows = append(rows, []string{p.SeriesName, p.Current, p.Expected})
				}
				fmt.Fprintln(out, renderTable([]string{"Series", "Current", "Expected"}, rows, nil))
				fmt.Fprintf(out, "%d file(s) would be renamed\n", len(proposals))
				return nil
			}

			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			hist := history.NewService(db.Conn(), log.Logger)
			hist.SetMaxEntries(cfg.Library.HistoryMaxEntries)
			org := organizer.NewService(lib.store, hist, lib.catalog, &log.Logger)

			results, err := org.FixNaming(cmd.Context(), proposals)
			if err != nil {
				return err
			}

			fixed := 0
			for _, r := range results {
				if r.Success {
					fixed++
					fmt.Fprintf(out, "renamed %s -> %s\n", r.Current, r.Expected)
				} else {
					fmt.Fprintf(out, "failed  %s: %s\n", r.Current, r.Error)
				}
			}
			fmt.Fprintf(out, "%d of %d file(s) renamed\n", fixed, len(results))

			if fixed < len(results) {
				return fmt.Errorf("%d rename(s) failed", len(results)-fixed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list the renames")
	return cmd
}

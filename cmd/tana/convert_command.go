package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tana/tana/internal/database"
	"github.com/tana/tana/internal/history"
	"github.com/tana/tana/internal/library/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun         bool
		deleteOriginal bool
	)

	cmd := &cobra.Command{
		Use:   "convert [dir]",
		Short: "Repack CBR archives as CBZ (defaults to the source directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.newLogger(cfg, cmd.ErrOrStderr(), false)
			lib := newLibrary(cfg, log.Logger)

			dir := cfg.Library.SourceDir
			if len(args) == 1 {
				dir = args[0]
			}

			svc := convert.NewService(lib.store, nil, lib.catalog, log.Logger)
			scan, err := svc.Scan(cmd.Context(), dir)
			if err != nil {
				return err
			}

			var paths []string
			for _, g := range scan.Groups {
				for _, f := range g.Files {
					if !f.HasCBZ {
						paths = append(paths, f.Path)
					}
				}
			}

			out := cmd.OutOrStdout()
			if len(paths) == 0 {
				fmt.Fprintln(out, "Nothing to convert")
				return nil
			}

			if dryRun {
				if !isTerminal(out) {
					return writeJSON(cmd, scan)
				}
				rows := make([][]string, 0, len(paths))
				for _, g := range scan.Groups {
					for _, f := range g.Files {
						if !f.HasCBZ {
							rows = append(rows, []string{g.Folder, f.Name, f.SizeHuman})
						}
					}
				}
				fmt.Fprintln(out, renderTable([]string{"Folder", "File", "Size"}, rows, nil))
				fmt.Fprintf(out, "%d file(s) would be converted\n", len(paths))
				return nil
			}

			db, err := database.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			hist := history.NewService(db.Conn(), log.Logger)
			hist.SetMaxEntries(cfg.Library.HistoryMaxEntries)
			svc = convert.NewService(lib.store, hist, lib.catalog, log.Logger)

			results, err := svc.Convert(cmd.Context(), paths, deleteOriginal)
			if err != nil {
				return err
			}

			for _, r := range results {
				if r.Success {
					fmt.Fprintf(out, "converted %s -> %s (%d pages)\n", r.Source, r.Destination, r.Pages)
				} else {
					fmt.Fprintf(out, "failed    %s: %s\n", r.Source, r.Error)
				}
			}
			converted := convert.Succeeded(results)
			fmt.Fprintf(out, "%d of %d file(s) converted\n", converted, len(results))

			if converted < len(results) {
				return fmt.Errorf("%d conversion(s) failed", len(results)-converted)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list the archives to convert")
	cmd.Flags().BoolVar(&deleteOriginal, "delete-original", false, "Remove each CBR after a successful conversion")
	return cmd
}

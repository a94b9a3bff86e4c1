package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tana/tana/internal/library/catalog"
)

type detectResult struct {
	Filename    string         `json:"filename"`
	Tome        *int           `json:"tome"`
	SeriesGuess string         `json:"seriesGuess"`
	SeriesMatch *catalog.Entry `json:"seriesMatch"`
	MatchScore  float64        `json:"matchScore"`
}

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect <file>...",
		Short: "Show the tome, series guess and catalog match for filenames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.newLogger(cfg, cmd.ErrOrStderr(), false)
			lib := newLibrary(cfg, log.Logger)

			results := make([]detectResult, 0, len(args))
			for _, arg := range args {
				detection, match, err := lib.scanner.Detect(cmd.Context(), filepath.Base(arg))
				if err != nil {
					return err
				}
				results = append(results, detectResult{
					Filename:    detection.Filename,
					Tome:        detection.Tome,
					SeriesGuess: detection.SeriesGuess,
					SeriesMatch: match.Entry,
					MatchScore:  math.Round(match.Score*100) / 100,
				})
			}

			if asJSON || !isTerminal(cmd.OutOrStdout()) {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				tome := "-"
				if r.Tome != nil {
					tome = strconv.Itoa(*r.Tome)
				}
				match, score := "-", "-"
				if r.SeriesMatch != nil {
					match = fmt.Sprintf("%s (%s)", r.SeriesMatch.Name, r.SeriesMatch.Label)
					score = strconv.FormatFloat(r.MatchScore, 'f', 2, 64)
				}
				rows = append(rows, []string{r.Filename, tome, r.SeriesGuess, match, score})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"File", "Tome", "Series guess", "Catalog match", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON even on a terminal")
	return cmd
}

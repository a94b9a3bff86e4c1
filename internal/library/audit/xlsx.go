package audit

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	seriesSheet = "Series"
	namingSheet = "Naming"
)

var (
	seriesHeaders = []string{
		"Destination", "Series", "Files", "Tomes", "Missing", "Duplicates",
		"Naming Issues", "Extensions", "Issues",
	}
	namingHeaders = []string{"Destination", "Series", "Tome", "Current", "Expected"}
)

// WriteXLSX writes the report as a workbook with one row per series folder
// and one row per naming issue.
func WriteXLSX(report *Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", seriesSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(namingSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeaders(f, seriesSheet, seriesHeaders, headerStyle); err != nil {
		return err
	}
	if err := writeHeaders(f, namingSheet, namingHeaders, headerStyle); err != nil {
		return err
	}

	namingRow := 2
	for i := range report.Series {
		finding := &report.Series[i]
		row := []any{
			finding.Label,
			finding.SeriesName,
			finding.FileCount,
			joinInts(finding.Tomes),
			joinInts(finding.MissingTomes),
			joinDuplicates(finding.DuplicateTomes),
			len(finding.NamingIssues),
			strings.Join(finding.Extensions, " "),
			finding.HasIssues,
		}
		if err := writeRow(f, seriesSheet, i+2, row); err != nil {
			return err
		}

		for _, issue := range finding.NamingIssues {
			tome := ""
			if issue.Tome != nil {
				tome = fmt.Sprint(*issue.Tome)
			}
			if err := writeRow(f, namingSheet, namingRow, []any{
				finding.Label, finding.SeriesName, tome, issue.Current, issue.Expected,
			}); err != nil {
				return err
			}
			namingRow++
		}
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, 18); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}

func joinDuplicates(dups []DuplicateTome) string {
	parts := make([]string, len(dups))
	for i, d := range dups {
		parts[i] = fmt.Sprintf("%d (x%d)", d.Tome, d.Count)
	}
	return strings.Join(parts, ", ")
}

// Package audit checks series folders for tome gaps, duplicate tomes and
// files whose names drift from the destination's template.
package audit

import (
	"slices"
	"sort"

	"github.com/tana/tana/internal/import/renamer"
)

// File is a comic archive inside a series folder.
type File struct {
	Name      string `json:"name"`
	Tome      *int   `json:"tome"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"sizeHuman"`
}

// DuplicateTome is a tome number held by more than one file.
type DuplicateTome struct {
	Tome  int `json:"tome"`
	Count int `json:"count"`
}

// NamingIssue is a file whose name differs from the template's.
type NamingIssue struct {
	Current  string `json:"current"`
	Expected string `json:"expected"`
	Tome     *int   `json:"tome"`
}

// Finding is the audit result for one series folder.
type Finding struct {
	SeriesName      string          `json:"seriesName"`
	Destination     string          `json:"destination"`
	Label           string          `json:"destLabel"`
	FileCount       int             `json:"fileCount"`
	Files           []File          `json:"files"`
	Tomes           []int           `json:"tomes"`
	MissingTomes    []int           `json:"missingTomes"`
	DuplicateTomes  []DuplicateTome `json:"duplicateTomes"`
	NamingIssues    []NamingIssue   `json:"namingIssues"`
	MixedExtensions bool            `json:"mixedExtensions"`
	Extensions      []string        `json:"extensions"`
	IsEmpty         bool            `json:"isEmpty"`
	HasIssues       bool            `json:"hasIssues"`
}

// AuditSeries inspects the files of one series folder against tpl.
func AuditSeries(seriesName, destination, label string, files []File, tpl renamer.Template) Finding {
	if files == nil {
		files = []File{}
	}

	f := Finding{
		SeriesName:     seriesName,
		Destination:    destination,
		Label:          label,
		FileCount:      len(files),
		Files:          files,
		MissingTomes:   []int{},
		DuplicateTomes: []DuplicateTome{},
		NamingIssues:   []NamingIssue{},
		IsEmpty:        len(files) == 0,
	}

	counts := make(map[int]int)
	order := make([]int, 0, len(files))
	exts := make(map[string]struct{})
	for _, file := range files {
		exts[file.Extension] = struct{}{}
		if file.Tome == nil {
			continue
		}
		if counts[*file.Tome] == 0 {
			order = append(order, *file.Tome)
		}
		counts[*file.Tome]++
	}

	f.Tomes = slices.Clone(order)
	sort.Ints(f.Tomes)
	f.MissingTomes = missingTomes(f.Tomes)

	for _, tome := range order {
		if counts[tome] > 1 {
			f.DuplicateTomes = append(f.DuplicateTomes, DuplicateTome{Tome: tome, Count: counts[tome]})
		}
	}

	for _, file := range files {
		expected := renamer.SanitizeFilename(tpl.Render(seriesName, file.Tome, file.Extension, ""))
		if file.Name != expected {
			f.NamingIssues = append(f.NamingIssues, NamingIssue{
				Current:  file.Name,
				Expected: expected,
				Tome:     file.Tome,
			})
		}
	}

	f.Extensions = make([]string, 0, len(exts))
	for ext := range exts {
		f.Extensions = append(f.Extensions, ext)
	}
	sort.Strings(f.Extensions)
	f.MixedExtensions = len(f.Extensions) > 1

	f.HasIssues = len(f.MissingTomes) > 0 ||
		len(f.DuplicateTomes) > 0 ||
		len(f.NamingIssues) > 0 ||
		f.MixedExtensions ||
		len(files) <= 1

	return f
}

// missingTomes returns the gaps in a sorted, deduplicated tome list. Gaps
// need at least two distinct tomes.
func missingTomes(tomes []int) []int {
	missing := []int{}
	if len(tomes) < 2 {
		return missing
	}
	next := tomes[0]
	for _, tome := range tomes {
		for ; next < tome; next++ {
			missing = append(missing, next)
		}
		next = tome + 1
	}
	return missing
}

package audit

import (
	"time"
)

// Summary aggregates findings across the catalog.
type Summary struct {
	TotalSeries            int `json:"totalSeries"`
	SeriesWithGaps         int `json:"seriesWithGaps"`
	SeriesWithNamingIssues int `json:"seriesWithNamingIssues"`
	EmptyFolders           int `json:"emptyFolders"`
	SingleFileSeries       int `json:"singleFileSeries"`
	DuplicateTomes         int `json:"duplicateTomes"`
}

// Report is a full catalog audit.
type Report struct {
	Series      []Finding `json:"series"`
	Summary     Summary   `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// FixProposal is a rename that brings a file in line with its template.
type FixProposal struct {
	Destination string `json:"destination"`
	SeriesName  string `json:"seriesName"`
	Current     string `json:"current"`
	Expected    string `json:"expected"`
}

// Summarize counts findings per issue kind.
func Summarize(findings []Finding) Summary {
	s := Summary{TotalSeries: len(findings)}
	for i := range findings {
		f := &findings[i]
		if len(f.MissingTomes) > 0 {
			s.SeriesWithGaps++
		}
		if len(f.NamingIssues) > 0 {
			s.SeriesWithNamingIssues++
		}
		if f.IsEmpty {
			s.EmptyFolders++
		}
		if f.FileCount == 1 {
			s.SingleFileSeries++
		}
		if len(f.DuplicateTomes) > 0 {
			s.DuplicateTomes++
		}
	}
	return s
}

// FixProposals lists one rename per naming issue, in report order.
func (r *Report) FixProposals() []FixProposal {
	fixes := make([]FixProposal, 0)
	for i := range r.Series {
		f := &r.Series[i]
		for _, issue := range f.NamingIssues {
			fixes = append(fixes, FixProposal{
				Destination: f.Destination,
				SeriesName:  f.SeriesName,
				Current:     issue.Current,
				Expected:    issue.Expected,
			})
		}
	}
	return fixes
}

// WithIssues returns only the findings flagged with issues.
func (r *Report) WithIssues() []Finding {
	out := make([]Finding, 0)
	for i := range r.Series {
		if r.Series[i].HasIssues {
			out = append(out, r.Series[i])
		}
	}
	return out
}

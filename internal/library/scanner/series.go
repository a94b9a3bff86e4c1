package scanner

import (
	"regexp"
	"strings"
)

// seriesStep rewrites the working title. Steps run in order.
type seriesStep struct {
	name    string
	pattern *regexp.Regexp
	repl    string
}

var (
	releasePrefixStep = seriesStep{"release-prefix", regexp.MustCompile(`^BD\.FR\.\-\.?\s*`), ""}

	// Metadata removed before separators are normalized.
	seriesCleanSteps = []seriesStep{
		{"brackets", bracketPattern, ""},
		{"parens", parenPattern, ""},
		{"noise", regexp.MustCompile(`(?i)\b(?:digital|rip[- ]?club|prof\.?x|tch|neo|toner|pitoufos|seulementbd)\b`), ""},
		{"year", regexp.MustCompile(`\b\d{4}\b`), ""},
	}

	// Volume markers. Everything from the marker on is discarded, subtitle included.
	seriesCutSteps = []seriesStep{
		{"t-marker", regexp.MustCompile(`(?i)[\s\-]+T\s?\d+.*$`), ""},
		{"tome-marker", regexp.MustCompile(`(?i)[\s\-]+Tome\s*\d+.*$`), ""},
		{"volume-marker", regexp.MustCompile(`(?i)[\s\-]+Vol(?:ume)?\.?\s*\d+.*$`), ""},
		{"dashed-number", regexp.MustCompile(`\s*-\s*\d{1,4}\s*-.*$`), ""},
		{"trailing-dashed-number", regexp.MustCompile(`\s*-\s*\d{1,4}\s*$`), ""},
		{"inner-number", regexp.MustCompile(`\s+\d{1,3}\s+.*$`), ""},
		{"trailing-number", regexp.MustCompile(`\s+\d{1,3}$`), ""},
	}

	seriesTidySteps = []seriesStep{
		{"one-shot", regexp.MustCompile(`\b-?\s*OS\s*-?\b`), ""},
		{"trailing-separators", regexp.MustCompile(`[\s\-_.]+$`), ""},
		{"leading-separators", regexp.MustCompile(`^[\s\-_.]+`), ""},
		{"spaces", regexp.MustCompile(`\s{2,}`), " "},
	}
)

func applySteps(name string, steps []seriesStep) string {
	for _, step := range steps {
		name = step.pattern.ReplaceAllString(name, step.repl)
	}
	return name
}

// DetectSeries guesses the series title of a filename. It returns "" when
// nothing usable is left; callers treat that as no suggestion.
func DetectSeries(filename string) string {
	name := Stem(filename)
	name = releasePrefixStep.pattern.ReplaceAllString(name, releasePrefixStep.repl)
	name = applySteps(name, seriesCleanSteps)

	// Dots are separators only when the name has no spaces at all.
	if strings.Contains(name, ".") && !strings.Contains(strings.TrimSpace(name), " ") {
		name = strings.ReplaceAll(name, ".", " ")
	}
	name = strings.ReplaceAll(name, "_", " ")

	name = applySteps(name, seriesCutSteps)
	name = applySteps(name, seriesTidySteps)
	return strings.TrimSpace(name)
}

package renamer

import (
	"regexp"
	"strings"
)

// Default templates.
const (
	DefaultTemplate       = "{series} - T{tome:02d}{ext}"
	DefaultTemplateNoTome = "{series}{ext}"
)

// Template is a pair of patterns: one for files with a tome number and one
// for one-shots.
type Template struct {
	Pattern       string `json:"template" yaml:"template" mapstructure:"template"`
	PatternNoTome string `json:"templateNoTome" yaml:"template_no_tome" mapstructure:"template_no_tome"`
}

// Rule overrides the global template for destinations whose path contains
// Filter, compared case-insensitively.
type Rule struct {
	Filter         string `json:"filter" yaml:"filter" mapstructure:"filter"`
	Template       string `json:"template" yaml:"template" mapstructure:"template"`
	TemplateNoTome string `json:"templateNoTome" yaml:"template_no_tome" mapstructure:"template_no_tome"`
}

// Matches reports whether the rule applies to destination.
func (r Rule) Matches(destination string) bool {
	filter := strings.ToLower(strings.TrimSpace(r.Filter))
	return filter != "" && strings.Contains(strings.ToLower(destination), filter)
}

// ResolveTemplate returns the template for destination: the first matching
// rule in declaration order, else global. Missing rule patterns fall back to
// the global ones.
func ResolveTemplate(global Template, rules []Rule, destination string) Template {
	for _, rule := range rules {
		if !rule.Matches(destination) {
			continue
		}
		resolved := global
		if rule.Template != "" {
			resolved.Pattern = rule.Template
		}
		if rule.TemplateNoTome != "" {
			resolved.PatternNoTome = rule.TemplateNoTome
		}
		return resolved
	}
	return global
}

var (
	doubleDashPattern   = regexp.MustCompile(`\s*-\s*-`)
	dashBeforeExtension = regexp.MustCompile(`\s*-\s*\.`)
)

// Render builds a filename from the template. With no tome the no-tome
// pattern is used (DefaultTemplateNoTome when empty) and tome placeholders
// are left untouched. Render never fails.
func (t Template) Render(series string, tome *int, ext, title string) string {
	pattern := t.Pattern
	if tome == nil {
		pattern = t.PatternNoTome
		if pattern == "" {
			pattern = DefaultTemplateNoTome
		}
	}

	ctx := &TokenContext{Series: series, Title: title, Tome: tome, Ext: ext}
	var b strings.Builder
	for _, token := range ParseTokens(pattern) {
		b.WriteString(token.Resolve(ctx))
	}

	result := b.String()
	if title == "" {
		result = cleanupOrphanedSeparators(result)
	}
	return result
}

// Render is shorthand for Template{pattern, patternNoTome}.Render.
func Render(pattern, series string, tome *int, ext, patternNoTome, title string) string {
	return Template{Pattern: pattern, PatternNoTome: patternNoTome}.Render(series, tome, ext, title)
}

// cleanupOrphanedSeparators removes what an empty {title} leaves behind:
// " - -" collapses to " -" and a dash right before the extension dot goes.
func cleanupOrphanedSeparators(s string) string {
	s = doubleDashPattern.ReplaceAllString(s, " -")
	return dashBeforeExtension.ReplaceAllString(s, ".")
}

package renamer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTemplate is wrapped by every template validation failure.
var ErrInvalidTemplate = errors.New("invalid template")

// TemplateError describes a template missing a required placeholder.
type TemplateError struct {
	Filter   string // Rule filter; empty for the global template
	Template string
	Missing  string
}

func (e *TemplateError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("template for rule %q must contain %s: %q", e.Filter, e.Missing, e.Template)
	}
	return fmt.Sprintf("template must contain %s: %q", e.Missing, e.Template)
}

func (e *TemplateError) Unwrap() error {
	return ErrInvalidTemplate
}

// ValidatePattern checks that a pattern names the series and the extension.
// {ext} is accepted in any letter case.
func ValidatePattern(pattern string) error {
	return validate("", pattern)
}

// ValidateRule checks a rule's pattern and names the rule filter on error.
func ValidateRule(rule Rule) error {
	return validate(rule.Filter, rule.Template)
}

func validate(filter, pattern string) error {
	if !strings.Contains(pattern, "{"+TokenSeries+"}") {
		return &TemplateError{Filter: filter, Template: pattern, Missing: "{series}"}
	}
	if !strings.Contains(strings.ToLower(pattern), "{"+TokenExt+"}") {
		return &TemplateError{Filter: filter, Template: pattern, Missing: "{ext}"}
	}
	return nil
}

// Preview renders pattern with sample values. A nil tome renders the
// no-tome default.
func Preview(pattern, series string, tome *int, ext, title string) string {
	return Template{Pattern: pattern}.Render(series, tome, ext, title)
}

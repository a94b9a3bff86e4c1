package scanner

import (
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TomeRule is one step of tome detection. Rules are tried in order and the
// first one that yields a number wins.
type TomeRule struct {
	Name    string
	Pattern *regexp.Regexp
	// Accept filters a candidate match; loc holds submatch indices into s.
	// Nil accepts every match.
	Accept func(s string, loc []int) bool
}

// find returns the first accepted capture of the rule in s.
func (r TomeRule) find(s string) (int, bool) {
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(s, -1) {
		if r.Accept != nil && !r.Accept(s, loc) {
			continue
		}
		n, err := strconv.Atoi(s[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

var (
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	parenPattern   = regexp.MustCompile(`\(.*?\)`)
	digitalPattern = regexp.MustCompile(`(?i)digital[- ]?\d+`)
)

// TomeRules lists the detection rules in precedence order.
var TomeRules = []TomeRule{
	{
		// Tome 12, Tome.12, Tome-12
		Name:    "tome",
		Pattern: regexp.MustCompile(`(?i)\btome[\s._-]*(\d+)`),
	},
	{
		// T12, T.12, T 012; never inside a word, at most three digits
		Name:    "t-prefix",
		Pattern: regexp.MustCompile(`(?i)t[\s._-]?(\d+)`),
		Accept:  acceptTPrefix,
	},
	{
		// Vol.12, Vol 12, Volume 12
		Name:    "volume",
		Pattern: regexp.MustCompile(`(?i)\bvol(?:ume)?[\s._-]*(\d+)`),
	},
	{
		// v 12, v.12, v_12
		Name:    "v-prefix",
		Pattern: regexp.MustCompile(`(?i)\bv[\s._](\d+)`),
	},
	{
		Name:    "hash",
		Pattern: regexp.MustCompile(`#(\d+)`),
	},
	{
		// Bare 1-3 digit number between separators. Last resort.
		Name:    "standalone",
		Pattern: regexp.MustCompile(`(?:^|[\s._\-])(\d{1,3})(?:[\s._\-]|$)`),
	},
}

// acceptTPrefix rejects a T that follows a letter and numbers longer than
// three digits.
func acceptTPrefix(s string, loc []int) bool {
	if loc[0] > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:loc[0]])
		if unicode.IsLetter(prev) {
			return false
		}
	}
	return loc[3]-loc[2] <= 3
}

// cleanForTome removes release metadata that must never be read as a tome.
func cleanForTome(stem string) string {
	cleaned := bracketPattern.ReplaceAllString(stem, "")
	cleaned = parenPattern.ReplaceAllString(cleaned, "")
	return digitalPattern.ReplaceAllString(cleaned, "")
}

// DetectTome extracts the volume number from a filename. The boolean is
// false when no rule matched, which callers treat as a one-shot.
func DetectTome(filename string) (int, bool) {
	cleaned := cleanForTome(Stem(filename))
	for _, rule := range TomeRules {
		if n, ok := rule.find(cleaned); ok {
			return n, true
		}
	}
	return 0, false
}

// DetectTomeRule is DetectTome that also reports which rule matched.
func DetectTomeRule(filename string) (tome int, rule string, ok bool) {
	cleaned := cleanForTome(Stem(filename))
	for _, r := range TomeRules {
		if n, found := r.find(cleaned); found {
			return n, r.Name, true
		}
	}
	return 0, "", false
}

// Package normalize canonicalizes series titles for comparison.
//
// The same function is used by detection, catalog matching, search and the
// audit so that a title and a folder name always reduce to the same key.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Articles are removed as whole words after punctuation has been split off.
var Articles = []string{"l", "le", "la", "les", "d", "de", "du", "des", "un", "une", "the"}

var (
	punctuationReplacer = strings.NewReplacer(
		"'", " ", "-", " ", ":", " ", "!", " ", "?", " ",
		",", " ", ".", " ", "/", " ", "(", " ", ")", " ", "&", " ",
	)

	// Letters that do not decompose into base + combining mark.
	ligatureReplacer = strings.NewReplacer(
		"œ", "oe", "æ", "ae", "ß", "ss", "ø", "o", "đ", "d", "ł", "l", "ð", "d", "þ", "th",
		"’", "'", "‘", "'",
	)

	articlePattern = regexp.MustCompile(`\b(?:` + strings.Join(Articles, "|") + `)\b`)
)

func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Fold lowercases text and strips diacritics without touching punctuation.
func Fold(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	folded, _, err := transform.String(stripMarks(), lowered)
	if err != nil {
		folded = lowered
	}
	return ligatureReplacer.Replace(folded)
}

// Normalize returns the comparison key for text. It never fails; input made
// only of punctuation or articles yields "". Normalize is idempotent.
func Normalize(text string) string {
	key := Fold(text)
	key = punctuationReplacer.Replace(key)
	key = articlePattern.ReplaceAllString(key, "")
	// Fields splits on Unicode spaces, so no-break spaces collapse too.
	return strings.Join(strings.Fields(key), " ")
}

// Tokens splits a normalized key into its distinct words.
func Tokens(key string) map[string]struct{} {
	fields := strings.Fields(key)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/tana/tana/internal/library/normalize"
)

// DefaultThreshold is the lowest score FindBest reports as a match.
const DefaultThreshold = 0.6

// Score levels.
const (
	ScoreExact      = 1.0
	ScoreNormalized = 0.95
	ScorePrefix     = 0.7
)

// Match is the outcome of FindBest. Entry is nil when nothing reached the
// threshold, in which case Score is 0.
type Match struct {
	Entry *Entry  `json:"entry"`
	Score float64 `json:"score"`
}

// Score rates how well a guessed title matches a catalog key, from 0 to 1.
// The guess is compared raw against the key first, so the result depends on
// argument order.
func Score(guess, key string) float64 {
	return score(guess, key, normalize.Normalize(guess), normalize.Normalize(key))
}

func score(guess, key, guessNorm, keyNorm string) float64 {
	if strings.ToLower(strings.TrimSpace(guess)) == key {
		return ScoreExact
	}
	if guessNorm == keyNorm {
		return ScoreNormalized
	}
	if strings.HasPrefix(guessNorm, keyNorm) || strings.HasPrefix(keyNorm, guessNorm) {
		shorter, longer := utf8.RuneCountInString(guessNorm), utf8.RuneCountInString(keyNorm)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		if shorter > 0 && float64(shorter)/float64(longer) >= 0.5 {
			return ScorePrefix
		}
	}
	overlap := tokenOverlap(guessNorm, keyNorm)
	if overlap >= 0.8 {
		return 0.6 + overlap*0.2
	}
	return overlap * 0.5
}

// tokenOverlap returns |A∩B| / max(|A|,|B|) over the words of a and b.
func tokenOverlap(a, b string) float64 {
	ta, tb := normalize.Tokens(a), normalize.Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(ta), len(tb)))
}

// FindBest scores guess against every key of the snapshot and returns the
// first entry of the best key. Ties keep the earlier key. An exact match
// stops the scan.
func (s *Snapshot) FindBest(guess string, threshold float64) Match {
	if guess == "" {
		return Match{}
	}

	guessNorm := normalize.Normalize(guess)
	bestKey := ""
	bestScore := 0.0
	for _, key := range s.keys {
		sc := score(guess, key, guessNorm, s.norms[key])
		if sc > bestScore {
			bestScore = sc
			bestKey = key
		}
		if sc >= ScoreExact {
			break
		}
	}

	if bestKey == "" || bestScore < threshold {
		return Match{}
	}
	entry := s.entries[bestKey][0]
	return Match{Entry: &entry, Score: bestScore}
}

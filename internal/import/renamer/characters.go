package renamer

import (
	"strings"
	"unicode"
)

// IllegalCharacters are characters not allowed in file or folder names on
// common filesystems.
var IllegalCharacters = []rune{'\\', '/', ':', '*', '?', '"', '<', '>', '|'}

var reservedNames = []string{
	"CON", "PRN", "AUX", "NUL",
	"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
	"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
}

// ReplaceIllegalCharacters swaps illegal characters for safe lookalikes.
// Colons become " - " between words and "-" elsewhere.
func ReplaceIllegalCharacters(s string) string {
	if s == "" {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == ':':
			result.WriteString(smartColonReplace(runes, i))
		case isIllegalChar(r):
			result.WriteRune(getReplacement(r))
		case unicode.IsControl(r):
			// dropped
		default:
			result.WriteRune(r)
		}
	}

	return cleanupSpaces(result.String())
}

// smartColonReplace uses " - " when the colon follows a word, "-" otherwise.
func smartColonReplace(runes []rune, pos int) string {
	var prevIsWord, nextIsSpace, nextIsWord bool
	if pos > 0 {
		prev := runes[pos-1]
		prevIsWord = unicode.IsLetter(prev) || unicode.IsDigit(prev)
	}
	if pos < len(runes)-1 {
		next := runes[pos+1]
		nextIsSpace = unicode.IsSpace(next)
		nextIsWord = unicode.IsLetter(next) || unicode.IsDigit(next)
	}

	if prevIsWord && (nextIsWord || nextIsSpace) {
		if nextIsSpace {
			return " -"
		}
		return " - "
	}
	return "-"
}

func isIllegalChar(r rune) bool {
	for _, illegal := range IllegalCharacters {
		if r == illegal {
			return true
		}
	}
	return false
}

// getReplacement returns a safe replacement for an illegal character.
func getReplacement(r rune) rune {
	switch r {
	case '\\', '/', '*', '|':
		return '-'
	case '"':
		return '\''
	case '<':
		return '('
	case '>':
		return ')'
	default:
		return ' '
	}
}

func cleanupSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return strings.TrimSpace(s)
}

// SanitizeFolderName makes a series name safe to use as a single path
// component. The result may be empty.
func SanitizeFolderName(s string) string {
	s = ReplaceIllegalCharacters(s)
	s = strings.Trim(s, " .")
	return avoidReservedNames(s)
}

// SanitizeFilename is SanitizeFolderName for a rendered filename; the
// extension is kept as is.
func SanitizeFilename(s string) string {
	return SanitizeFolderName(s)
}

// avoidReservedNames handles Windows reserved device names.
func avoidReservedNames(s string) string {
	upper := strings.ToUpper(s)
	for _, r := range reservedNames {
		if upper == r {
			return s + "_"
		}
		if strings.HasPrefix(upper, r+".") {
			return s[:len(r)] + "_" + s[len(r):]
		}
	}
	return s
}

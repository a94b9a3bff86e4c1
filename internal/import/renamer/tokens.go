package renamer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Placeholder names understood by the renderer. Extension names are case
// sensitive: {ext} lowercases the extension and {EXT} uppercases it.
const (
	TokenSeries = "series"
	TokenTitle  = "title"
	TokenTome   = "tome"
	TokenExt    = "ext"
	TokenEXT    = "EXT"
)

// tomeWidths maps the supported tome modifiers to their zero-padded width.
var tomeWidths = map[string]int{
	"02d": 2,
	"03d": 3,
}

// TokenContext holds the values a template is rendered with.
type TokenContext struct {
	Series string
	Title  string
	Tome   *int
	Ext    string
}

// Token is one segment of a parsed template: either literal text or a
// placeholder such as {tome:02d}.
type Token struct {
	Raw         string // Original text, braces included for placeholders
	Name        string // Placeholder name; empty for literals
	Modifier    string // Text after the colon, e.g. "02d"
	HasModifier bool
	Literal     bool
}

// tokenPattern matches innermost brace groups like {series} or {tome:03d}.
var tokenPattern = regexp.MustCompile(`\{([^{}]*)\}`)

// ParseTokens splits a template into literal and placeholder segments in
// order. Each placeholder is recognised as a whole token, so {tome:02d} is
// never read as {tome} followed by text.
func ParseTokens(pattern string) []Token {
	locs := tokenPattern.FindAllStringSubmatchIndex(pattern, -1)
	tokens := make([]Token, 0, 2*len(locs)+1)

	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			tokens = append(tokens, literal(pattern[last:loc[0]]))
		}
		tokens = append(tokens, parseTokenContent(pattern[loc[0]:loc[1]], pattern[loc[2]:loc[3]]))
		last = loc[1]
	}
	if last < len(pattern) {
		tokens = append(tokens, literal(pattern[last:]))
	}
	return tokens
}

func literal(text string) Token {
	return Token{Raw: text, Literal: true}
}

// parseTokenContent parses the content inside a placeholder's braces.
func parseTokenContent(raw, content string) Token {
	token := Token{Raw: raw}
	if colonIdx := strings.Index(content, ":"); colonIdx >= 0 {
		token.Name = content[:colonIdx]
		token.Modifier = content[colonIdx+1:]
		token.HasModifier = true
	} else {
		token.Name = content
	}
	return token
}

// Known reports whether the token is a placeholder the renderer fills in.
func (t *Token) Known() bool {
	if t.Literal {
		return false
	}
	switch t.Name {
	case TokenSeries, TokenTitle, TokenExt, TokenEXT:
		return !t.HasModifier
	case TokenTome:
		if !t.HasModifier {
			return true
		}
		_, ok := tomeWidths[t.Modifier]
		return ok
	default:
		return false
	}
}

// Resolve returns the text for this token. Unknown placeholders and tome
// placeholders without a tome value resolve to their raw text.
func (t *Token) Resolve(ctx *TokenContext) string {
	if !t.Known() {
		return t.Raw
	}

	switch t.Name {
	case TokenSeries:
		return ctx.Series
	case TokenTitle:
		return ctx.Title
	case TokenExt:
		return strings.ToLower(ctx.Ext)
	case TokenEXT:
		return strings.ToUpper(ctx.Ext)
	default:
		if ctx.Tome == nil {
			return t.Raw
		}
		return formatTome(*ctx.Tome, tomeWidths[t.Modifier])
	}
}

func formatTome(tome, width int) string {
	if width == 0 {
		return strconv.Itoa(tome)
	}
	return fmt.Sprintf("%0*d", width, tome)
}

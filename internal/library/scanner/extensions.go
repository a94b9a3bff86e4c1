package scanner

import (
	"path/filepath"
	"strings"
)

// ComicExtensions contains supported comic archive extensions.
var ComicExtensions = map[string]bool{
	".cbr": true,
	".cbz": true,
	".pdf": true,
}

// IsComicFile checks if a filename has a comic archive extension.
func IsComicFile(filename string) bool {
	return ComicExtensions[Ext(filename)]
}

// Ext returns the lowercased extension of filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Stem returns the base name of filename without its last extension.
// Dotfiles such as ".cbz" are returned unchanged.
func Stem(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}

package scanner

import (
	"testing"
)

func TestIsComicFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"Naruto T01.cbz", true},
		{"Naruto T01.CBZ", true},
		{"Naruto T01.cbr", true},
		{"Naruto T01.pdf", true},
		{"Naruto T01.PDF", true},

		{"Naruto T01.zip", false},
		{"Naruto T01.rar", false},
		{"Naruto T01.epub", false},
		{"cover.jpg", false},
		{"Naruto", false},
		{"", false},

		{"One.Piece.T01.cbz", true},
		{"Naruto.cbz.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := IsComicFile(tt.filename)
			if got != tt.want {
				t.Errorf("IsComicFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Naruto T01.cbz", "Naruto T01"},
		{"One.Piece.T01.cbz", "One.Piece.T01"},
		{"sub/dir/Blake et Mortimer 01.cbr", "Blake et Mortimer 01"},
		{"no-extension", "no-extension"},
		{".cbz", ".cbz"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Stem(tt.filename); got != tt.want {
				t.Errorf("Stem(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

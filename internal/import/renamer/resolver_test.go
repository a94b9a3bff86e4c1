package renamer

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		series        string
		tome          *int
		ext           string
		patternNoTome string
		title         string
		want          string
	}{
		{"default with tome", "{series} - T{tome:02d}{ext}", "Naruto", intPtr(5), ".cbz", "", "", "Naruto - T05.cbz"},
		{"no tome", "{series} - T{tome:02d}{ext}", "Naruto", nil, ".cbz", "{series}{ext}", "", "Naruto.cbz"},
		{"three digits", "{series} - T{tome:03d}{ext}", "Bleach", intPtr(7), ".cbz", "", "", "Bleach - T007.cbz"},
		{"no padding", "{series} T{tome}{ext}", "Bleach", intPtr(42), ".cbz", "", "", "Bleach T42.cbz"},
		{"padding overflow", "{series} T{tome:02d}{ext}", "One Piece", intPtr(105), ".cbz", "", "", "One Piece T105.cbz"},
		{"ext lowercased", "{series}{ext}", "Test", intPtr(1), ".CBZ", "", "", "Test.cbz"},
		{"EXT uppercased", "{series}{EXT}", "Test", intPtr(1), ".cbz", "", "", "Test.CBZ"},
		{"title", "{series} - T{tome:02d} - {title}{ext}", "Naruto", intPtr(1), ".cbz", "", "Le debut", "Naruto - T01 - Le debut.cbz"},
		{"empty title", "{series} - T{tome:02d} - {title}{ext}", "Naruto", intPtr(1), ".cbz", "", "", "Naruto - T01.cbz"},
		{"empty title middle", "{series} - {title} - T{tome:02d}{ext}", "Naruto", intPtr(1), ".cbz", "", "", "Naruto - T01.cbz"},
		{"no tome fallback", "{series} - T{tome:02d}{ext}", "One Shot", nil, ".pdf", "{series}{ext}", "", "One Shot.pdf"},
		{"no tome default", "{series} - T{tome:02d}{ext}", "One Shot", nil, ".cbz", "", "", "One Shot.cbz"},
		{"no tome title", "{series} - {title}{EXT}", "", nil, ".cbr", "{series} - {title}{EXT}", "Intégrale", " - Intégrale.CBR"},
		{"no tome leaves tome tokens", "", "Blacksad", nil, ".cbz", "{series} T{tome:02d}{ext}", "", "Blacksad T{tome:02d}.cbz"},
		{"all tome forms", "{tome}-{tome:02d}-{tome:03d}", "x", intPtr(4), ".cbz", "", "x", "4-04-004"},
		{"tome zero", "{series} T{tome:02d}{ext}", "Prequel", intPtr(0), ".cbz", "", "", "Prequel T00.cbz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.pattern, tt.series, tt.tome, tt.ext, tt.patternNoTome, tt.title)
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_EmptyTitleCleanup(t *testing.T) {
	patterns := []string{
		"{series} - T{tome:02d} - {title}{ext}",
		"{series} - {title} - T{tome:02d}{ext}",
		"{series} - {title} - {title}{ext}",
	}

	for _, pattern := range patterns {
		got := Render(pattern, "Naruto", intPtr(1), ".cbz", pattern, "")
		if strings.Contains(got, " - - ") || strings.Contains(got, " - .") || strings.Contains(got, "- -") {
			t.Errorf("Render(%q) left dangling separators: %q", pattern, got)
		}
		noTome := Render(pattern, "Naruto", nil, ".cbz", pattern, "")
		if strings.Contains(noTome, " - .") {
			t.Errorf("Render(%q) without tome left dangling separators: %q", pattern, noTome)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	first := Render(DefaultTemplate, "Astérix", intPtr(12), ".cbr", DefaultTemplateNoTome, "")
	for range 5 {
		if got := Render(DefaultTemplate, "Astérix", intPtr(12), ".cbr", DefaultTemplateNoTome, ""); got != first {
			t.Fatalf("Render() not deterministic: %q then %q", first, got)
		}
	}
	if first != "Astérix - T12.cbr" {
		t.Errorf("Render() = %q", first)
	}
}

func TestResolveTemplate(t *testing.T) {
	global := Template{Pattern: DefaultTemplate, PatternNoTome: DefaultTemplateNoTome}

	tests := []struct {
		name        string
		rules       []Rule
		destination string
		want        Template
	}{
		{
			name:        "no rules",
			destination: "/data/manga",
			want:        global,
		},
		{
			name:        "matching rule",
			rules:       []Rule{{Filter: "manga", Template: "{series} T{tome:03d}{ext}", TemplateNoTome: "{series}{ext}"}},
			destination: "/data/manga/shonen",
			want:        Template{Pattern: "{series} T{tome:03d}{ext}", PatternNoTome: "{series}{ext}"},
		},
		{
			name:        "no matching rule",
			rules:       []Rule{{Filter: "manga", Template: "{series} T{tome:03d}{ext}"}},
			destination: "/data/bd/franco-belge",
			want:        global,
		},
		{
			name: "first matching rule wins",
			rules: []Rule{
				{Filter: "manga", Template: "first{ext}", TemplateNoTome: "first{ext}"},
				{Filter: "manga", Template: "second{ext}", TemplateNoTome: "second{ext}"},
			},
			destination: "/data/manga",
			want:        Template{Pattern: "first{ext}", PatternNoTome: "first{ext}"},
		},
		{
			name:        "case insensitive filter",
			rules:       []Rule{{Filter: "  MANGA ", Template: "m{series}{ext}"}},
			destination: "/data/Manga",
			want:        Template{Pattern: "m{series}{ext}", PatternNoTome: DefaultTemplateNoTome},
		},
		{
			name:        "blank filter never matches",
			rules:       []Rule{{Filter: "  ", Template: "x{series}{ext}"}},
			destination: "/data/manga",
			want:        global,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTemplate(global, tt.rules, tt.destination)
			if got != tt.want {
				t.Errorf("ResolveTemplate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

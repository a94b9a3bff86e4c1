package normalize

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "NARUTO", "naruto"},
		{"accents", "Astérix", "asterix"},
		{"accents and articles", "Les Cités Obscures", "cites obscures"},
		{"french article", "Le Chat", "chat"},
		{"english article", "The Walking Dead", "walking dead"},
		{"elided article", "L'Attaque des Titans", "attaque titans"},
		{"punctuation", "One-Punch Man: Hero!", "one punch man hero"},
		{"ampersand", "Tom & Jerry", "tom jerry"},
		{"whitespace", "Too   Many   Spaces", "too many spaces"},
		{"no-break space", "One\u00a0Piece", "one piece"},
		{"narrow no-break space", "Astérix\u202f: le Gaulois", "asterix gaulois"},
		{"tab and newline", "Blake\tet\nMortimer", "blake et mortimer"},
		{"ligature", "Cœur de Pierre", "coeur pierre"},
		{"empty", "", ""},
		{"only punctuation", " - : ! ", ""},
		{"only articles", "Le La Les", ""},
		{"article inside word kept", "Lelouch", "lelouch"},
		{"underscore kept", "le_chat", "le_chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"L'Attaque des Titans",
		"BD.FR.- Les Aventures de Tintin",
		"  Élodie & the  Machine (2021) ",
		"d'Artagnan / Les 3 Mousquetaires",
		"Ça, c'est l'été!",
		"one.piece_vol-01",
		"ŒUVRES COMPLÈTES",
		"日本語 タイトル",
		"de de de",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_NoDoubleSpaces(t *testing.T) {
	got := Normalize("Le  Chat - du - Rabbin")
	if strings.Contains(got, "  ") {
		t.Errorf("Normalize left double spaces: %q", got)
	}
	if got != "chat rabbin" {
		t.Errorf("Normalize = %q, want %q", got, "chat rabbin")
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Éléphant: Rose "); got != "elephant: rose" {
		t.Errorf("Fold() = %q", got)
	}
}

func TestTokens(t *testing.T) {
	set := Tokens("dragon ball dragon")
	if len(set) != 2 {
		t.Fatalf("Tokens() returned %d tokens, want 2", len(set))
	}
	if _, ok := set["ball"]; !ok {
		t.Error("Tokens() missing \"ball\"")
	}
	if len(Tokens("")) != 0 {
		t.Error("Tokens(\"\") should be empty")
	}
}

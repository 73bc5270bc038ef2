package search

import (
	"testing"

	"github.com/kozaktomas/image-compare/internal/compare"
)

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Café", "Cafe"},
		{"Jiří Novák", "Jiri Novak"},
		{"Crème brûlée", "Creme brulee"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := RemoveDiacritics(tc.input); got != tc.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFilterByName(t *testing.T) {
	candidates := []compare.Candidate{
		{Name: "Café Espresso Cup Set"},
		{Name: "Ceramic Coffee Mug"},
		{Name: "CAFE   latte glass"},
		{Name: "Teapot"},
	}

	tests := []struct {
		name   string
		needle string
		want   []string
	}{
		{"empty keeps all", "", []string{"Café Espresso Cup Set", "Ceramic Coffee Mug", "CAFE   latte glass", "Teapot"}},
		{"whitespace keeps all", "   ", []string{"Café Espresso Cup Set", "Ceramic Coffee Mug", "CAFE   latte glass", "Teapot"}},
		{"diacritics ignored", "cafe", []string{"Café Espresso Cup Set", "CAFE   latte glass"}},
		{"needle with diacritics", "CAFÉ", []string{"Café Espresso Cup Set", "CAFE   latte glass"}},
		{"whitespace collapsed", "cafe latte", []string{"CAFE   latte glass"}},
		{"no match", "kettle", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterByName(candidates, tc.needle)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d candidates, got %d", len(tc.want), len(got))
			}
			for i, name := range tc.want {
				if got[i].Name != name {
					t.Errorf("position %d: expected %q, got %q", i, name, got[i].Name)
				}
			}
		})
	}
}

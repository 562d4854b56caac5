package usecase

import (
	"testing"
)

func TestNormalizeForEmbedding(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and strips punctuation",
			input: "Leche GLORIA, Entera 1L!",
			want:  "leche gloria entera 1l",
		},
		{
			name:  "folds diacritics",
			input: "Plátano de Isla",
			want:  "platano de isla",
		},
		{
			name:  "folds enie",
			input: "ARROZ COSTEÑO",
			want:  "arroz costeno",
		},
		{
			name:  "collapses whitespace",
			input: "  PAN   FRANCÉS \t x6 ",
			want:  "pan frances x6",
		},
		{
			name:  "keeps digits",
			input: "Yogurt 900ml",
			want:  "yogurt 900ml",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only punctuation",
			input: "*** ---",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeForEmbedding(tc.input)
			if got != tc.want {
				t.Errorf("NormalizeForEmbedding(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExtractDeclaredSize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		quantity float64
		unit     string
		ok       bool
	}{
		{"kilograms", "ARROZ COSTEÑO 5KG", 5, "kg", true},
		{"grams with space", "LOMO FINO 500 G", 500, "g", true},
		{"gr abbreviation", "QUESO FRESCO 400GR", 400, "g", true},
		{"comma decimal liters", "ACEITE PRIMOR 1,5L", 1.5, "l", true},
		{"dot decimal liters", "GASEOSA 2.25LT", 2.25, "l", true},
		{"milliliters", "YOGURT GLORIA 900ML", 900, "ml", true},
		{"spelled out", "AGUA 3 litros", 3, "l", true},
		{"count", "HUEVOS 6 UN", 6, "unit", true},
		{"no size", "PAN FRANCES", 0, "", false},
		{"zero size", "BOLSA 0KG", 0, "", false},
		{"digits without unit", "PROMO 2X1", 0, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			quantity, unit, ok := ExtractDeclaredSize(tc.input)
			if ok != tc.ok {
				t.Fatalf("ExtractDeclaredSize(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if quantity != tc.quantity || unit != tc.unit {
				t.Errorf("ExtractDeclaredSize(%q) = (%v, %q), want (%v, %q)", tc.input, quantity, unit, tc.quantity, tc.unit)
			}
		})
	}
}

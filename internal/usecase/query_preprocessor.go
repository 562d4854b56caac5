package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Compiled regex patterns for product name preprocessing
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)

	// Matches declared sizes printed on receipt lines like "1KG", "500 G", "1,5L", "900ML", "6 UN"
	declaredSizeRegex = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(kgs?|kilos?|grs?|gramos|g|ml|lts?|litros?|l|unidades|unidad|unid|und|un)\b`)
)

// sizeUnits maps the unit captured by declaredSizeRegex onto the units understood by UnitNormalizer
var sizeUnits = map[string]string{
	"kg": "kg", "kgs": "kg", "kilo": "kg", "kilos": "kg",
	"g": "g", "gr": "g", "grs": "g", "gramos": "g",
	"ml": "ml",
	"l": "l", "lt": "l", "lts": "l", "litro": "l", "litros": "l",
	"un": "unit", "und": "unit", "unid": "unit", "unidad": "unit", "unidades": "unit",
}

// foldDiacritics strips combining marks so "Plátano" and "platano" compare equal
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeForEmbedding produces the canonical text sent to the embedding provider.
// Lowercases, folds diacritics, strips non-alphanumeric characters and collapses whitespace.
func NormalizeForEmbedding(name string) string {
	if name == "" {
		return ""
	}
	result := foldDiacritics(strings.ToLower(strings.TrimSpace(name)))
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ExtractDeclaredSize pulls the package size out of a receipt line name.
// "ARROZ COSTEÑO 5KG" yields (5, "kg", true). Count sizes such as "6 UN" yield unit "unit".
func ExtractDeclaredSize(name string) (float64, string, bool) {
	cleaned := foldDiacritics(strings.ToLower(name))

	match := declaredSizeRegex.FindStringSubmatch(cleaned)
	if match == nil {
		return 0, "", false
	}

	quantity, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil || quantity <= 0 {
		return 0, "", false
	}

	unit, ok := sizeUnits[match[2]]
	if !ok {
		return 0, "", false
	}

	return quantity, unit, true
}

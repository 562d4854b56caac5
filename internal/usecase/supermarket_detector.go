package usecase

import (
	"regexp"
	"strings"
)

// Collection identifiers of the supported retailers, in detection order
const (
	CollectionTottus   = "tottus"
	CollectionPlazaVea = "plazavea"
	CollectionWong     = "wong"
	CollectionMetro    = "metro"
)

// KnownRetailers returns the supported collections in declaration order.
// Detection and cross-retailer searches iterate in this order.
func KnownRetailers() []string {
	return []string{CollectionTottus, CollectionPlazaVea, CollectionWong, CollectionMetro}
}

// noise allows up to two OCR junk characters between letters ("T.O TTUS", "W-0NG")
const noise = `[\W_]{0,2}`

// RetailerPatterns is the ordered list of patterns identifying one retailer
type RetailerPatterns struct {
	Collection string
	Patterns   []*regexp.Regexp
}

// defaultRetailerPatterns are matched against lowercased, diacritic-free OCR text.
// Character classes absorb common OCR substitutions (0/o, 3/e, 4/a, 5/s, v/u).
var defaultRetailerPatterns = []RetailerPatterns{
	{
		Collection: CollectionTottus,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`t` + noise + `[o0]` + noise + `t` + noise + `t` + noise + `[uv]` + noise + `[s5]`),
			regexp.MustCompile(`hiper` + noise + `t[o0]t[uv][s5]`),
		},
	},
	{
		Collection: CollectionPlazaVea,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`pl[a4]z[a4]` + `[\W_]{0,3}` + `v[e3][a4]`),
			regexp.MustCompile(`supermercados\s+peruanos`),
		},
	},
	{
		Collection: CollectionWong,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bw` + noise + `[o0]` + noise + `n` + noise + `g\b`),
			regexp.MustCompile(`\be\.?\s*w[o0]ng`),
		},
	},
	{
		Collection: CollectionMetro,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bm[e3]tr[o0]\b`),
			regexp.MustCompile(`hipermercados\s+m[e3]tr[o0]`),
		},
	},
}

// retailerAliases maps known names and spellings (already normalized) to collections
var retailerAliases = map[string]string{
	"tottus":               CollectionTottus,
	"hipermercados tottus": CollectionTottus,
	"hiper tottus":         CollectionTottus,
	"plazavea":             CollectionPlazaVea,
	"plaza vea":            CollectionPlazaVea,
	"plaza_vea":            CollectionPlazaVea,
	"pvea":                 CollectionPlazaVea,
	"wong":                 CollectionWong,
	"e wong":               CollectionWong,
	"ewong":                CollectionWong,
	"metro":                CollectionMetro,
	"hipermercados metro":  CollectionMetro,
	"cencosud metro":       CollectionMetro,
}

var aliasSeparatorRegex = regexp.MustCompile(`[^a-z0-9_]+`)

// SupermarketDetector identifies the retailer of a receipt from its OCR text
type SupermarketDetector struct {
	patterns          []RetailerPatterns
	defaultCollection string
}

// NewSupermarketDetector creates a detector with the compiled-in patterns.
// An empty default collection falls back to the first known retailer.
func NewSupermarketDetector(defaultCollection string) *SupermarketDetector {
	if defaultCollection == "" {
		defaultCollection = KnownRetailers()[0]
	}
	return &SupermarketDetector{
		patterns:          defaultRetailerPatterns,
		defaultCollection: defaultCollection,
	}
}

// DefaultCollection returns the collection used when no retailer is recognized
func (d *SupermarketDetector) DefaultCollection() string {
	return d.defaultCollection
}

// Detect returns the collection of the first retailer, in declaration order,
// with a pattern matching the text. Unrecognized text yields the default collection.
func (d *SupermarketDetector) Detect(ocrText string) string {
	normalized := foldDiacritics(strings.ToLower(ocrText))
	if strings.TrimSpace(normalized) == "" {
		return d.defaultCollection
	}

	for _, retailer := range d.patterns {
		for _, pattern := range retailer.Patterns {
			if pattern.MatchString(normalized) {
				return retailer.Collection
			}
		}
	}

	return d.defaultCollection
}

// NormalizeName maps a known retailer name or alias to its collection
func (d *SupermarketDetector) NormalizeName(name string) string {
	key := foldDiacritics(strings.ToLower(strings.TrimSpace(name)))
	key = aliasSeparatorRegex.ReplaceAllString(key, " ")
	key = strings.TrimSpace(key)

	if collection, ok := retailerAliases[key]; ok {
		return collection
	}
	return d.defaultCollection
}

package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/rs/zerolog"
)

// MockProductFinder is a mock implementation of ProductFinder
type MockProductFinder struct {
	mu          sync.Mutex
	matches     map[string]*domain.ClassifiedLineItem
	collections []string
	validated   []bool
}

func (m *MockProductFinder) FindSimilarProduct(ctx context.Context, productName, collection string, validateCO2 bool) *domain.ClassifiedLineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = append(m.collections, collection)
	m.validated = append(m.validated, validateCO2)
	if match, ok := m.matches[productName]; ok {
		copied := *match
		return &copied
	}
	return nil
}

// MockCategoryInferrer is a mock implementation of CategoryInferrer
type MockCategoryInferrer struct {
	mu       sync.Mutex
	results  map[string]domain.CategoryInference
	calls    int
	retailer string
}

func (m *MockCategoryInferrer) InferCategory(ctx context.Context, productName, retailer string) domain.CategoryInference {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.retailer = retailer
	if r, ok := m.results[productName]; ok {
		return r
	}
	return domain.CategoryInference{Category: domain.Uncategorized, Confidence: 0.3}
}

// MockAlternativeFinder is a mock implementation of AlternativeFinder
type MockAlternativeFinder struct {
	mu           sync.Mutex
	alternatives []domain.RecommendedAlternative
	requested    []string
	searchOther  bool
}

func (m *MockAlternativeFinder) FindAlternatives(ctx context.Context, product domain.ClassifiedLineItem, originRetailer string, searchOtherRetailers bool) []domain.RecommendedAlternative {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, product.Name)
	m.searchOther = searchOtherRetailers
	return m.alternatives
}

func newTestPipeline(finder ProductFinder, inferrer CategoryInferrer, recommender AlternativeFinder, config PipelineConfig) *BoletaPipeline {
	taxonomy := testTaxonomy()
	p := NewBoletaPipeline(
		NewSupermarketDetector("tottus"),
		finder,
		inferrer,
		recommender,
		NewUnitNormalizer(DefaultUnitWeightTable()),
		NewImpactClassifier(taxonomy, nil),
		taxonomy,
		config,
		zerolog.Nop(),
	)
	p.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("PET", -5*3600)) }
	return p
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBoletaPipeline_Analyze(t *testing.T) {
	finder := &MockProductFinder{matches: map[string]*domain.ClassifiedLineItem{
		"LECHE GLORIA 1L": {
			MatchedName:       "Leche Gloria Entera 1L",
			CanonicalCategory: "Lácteos",
			CO2FactorPerUnit:  1.5,
			CO2Source:         domain.CO2SourceCatalog,
			IsLocal:           true,
			Confidence:        0.9,
		},
		"LOMO FINO 500G": {
			MatchedName:       "Lomo Fino de Res",
			CanonicalCategory: "Carne de res",
			CO2FactorPerUnit:  60,
			CO2Source:         domain.CO2SourceCatalog,
			Confidence:        0.8,
		},
	}}
	inferrer := &MockCategoryInferrer{results: map[string]domain.CategoryInference{
		"MANZANA ROJA": {Category: "Frutas y Verduras", Confidence: 0.85},
	}}
	recommender := &MockAlternativeFinder{alternatives: []domain.RecommendedAlternative{{Name: "Pollo Entero", CO2PerKg: 6.9}}}
	pipeline := newTestPipeline(finder, inferrer, recommender, PipelineConfig{MaxWorkers: 2, ValidateCO2: true, SearchOtherRetailers: true})

	boleta := pipeline.Analyze(context.Background(), AnalyzeRequest{
		OCRText: "HIPERMERCADOS TOTTUS S.A. RUC 20508565934",
		Items: []domain.RawExtractedLineItem{
			{Name: "LECHE GLORIA 1L", UnitPrice: 4.5, Quantity: 2},
			{Name: "LOMO FINO 500G", UnitPrice: 32, Quantity: 1},
			{Name: "MANZANA ROJA", UnitPrice: 1.2, Quantity: 3},
			{Name: "BOLSA REUTILIZABLE", UnitPrice: 0.5, Quantity: 0},
		},
		IncludeAlternatives: true,
	})

	if boleta.Retailer != "tottus" {
		t.Errorf("Retailer = %q, want tottus", boleta.Retailer)
	}
	if boleta.AnalyzedAt.Location() != time.UTC {
		t.Errorf("AnalyzedAt should be UTC, got %v", boleta.AnalyzedAt)
	}
	if len(boleta.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(boleta.Items))
	}
	for i, name := range []string{"LECHE GLORIA 1L", "LOMO FINO 500G", "MANZANA ROJA", "BOLSA REUTILIZABLE"} {
		if boleta.Items[i].Name != name {
			t.Errorf("item %d = %q, want %q (order must be kept)", i, boleta.Items[i].Name, name)
		}
	}

	milk := boleta.Items[0]
	if !milk.Matched || milk.UnitPrice != 4.5 || milk.Quantity != 2 {
		t.Errorf("milk = %+v", milk)
	}
	if milk.Unit != "l" || !approx(milk.WeightKg, 2) || !approx(milk.TotalCO2, 3) {
		t.Errorf("milk weight = %v %s, co2 = %v", milk.WeightKg, milk.Unit, milk.TotalCO2)
	}
	// Lácteos taxonomy bounds: green 2, yellow 4
	if milk.Verdict.Tier != domain.TierLow || !milk.Verdict.IsEco {
		t.Errorf("milk verdict = %+v", milk.Verdict)
	}
	if milk.GreenPoints != 12 {
		t.Errorf("milk green points = %d, want 12", milk.GreenPoints)
	}
	if len(milk.Alternatives) != 0 {
		t.Errorf("low-tier items should not get alternatives")
	}

	beef := boleta.Items[1]
	if !approx(beef.WeightKg, 0.5) || !approx(beef.TotalCO2, 30) {
		t.Errorf("beef weight = %v, co2 = %v", beef.WeightKg, beef.TotalCO2)
	}
	if beef.Verdict.Tier != domain.TierHigh || beef.GreenPoints != 0 {
		t.Errorf("beef verdict = %+v, points %d", beef.Verdict, beef.GreenPoints)
	}
	if len(beef.Alternatives) != 1 {
		t.Errorf("beef alternatives = %+v", beef.Alternatives)
	}

	apple := boleta.Items[2]
	if apple.Matched || apple.CO2Source != domain.CO2SourceTaxonomy {
		t.Errorf("apple source = %s, matched %v", apple.CO2Source, apple.Matched)
	}
	if apple.CanonicalCategory != "Frutas y Verduras" || apple.CO2FactorPerUnit != 0.7 {
		t.Errorf("apple = %+v", apple.ClassifiedLineItem)
	}
	if apple.Unit != "unit" || !approx(apple.WeightKg, 0.6) {
		t.Errorf("apple weight = %v %s, want 0.6 unit", apple.WeightKg, apple.Unit)
	}

	bag := boleta.Items[3]
	if bag.CO2Source != domain.CO2SourceUnclassified || bag.CanonicalCategory != domain.Uncategorized {
		t.Errorf("bag = %+v", bag.ClassifiedLineItem)
	}
	if bag.Quantity != 1 || bag.TotalCO2 != 0 || bag.GreenPoints != 0 || bag.Verdict.Tier != "" {
		t.Errorf("unclassified bag = %+v", bag)
	}

	s := boleta.Summary
	if s.MatchedCount != 2 || s.UnmatchedCount != 2 {
		t.Errorf("matched/unmatched = %d/%d, want 2/2", s.MatchedCount, s.UnmatchedCount)
	}
	if s.LowCount != 2 || s.MediumCount != 0 || s.HighCount != 1 {
		t.Errorf("tier counts = %d/%d/%d", s.LowCount, s.MediumCount, s.HighCount)
	}
	if !approx(s.TotalWeightKg, 3.1) || !approx(s.TotalCO2, 33.42) {
		t.Errorf("totals = %v kg, %v co2", s.TotalWeightKg, s.TotalCO2)
	}
	if !approx(s.CO2PerKg, 33.42/3.1) || s.Tier != domain.TierHigh {
		t.Errorf("co2/kg = %v tier %s", s.CO2PerKg, s.Tier)
	}
	if s.GreenPoints != 12+0+10 {
		t.Errorf("green points = %d, want 22", s.GreenPoints)
	}

	for _, v := range finder.validated {
		if !v {
			t.Errorf("ValidateCO2 not forwarded to matcher")
		}
	}
	if !recommender.searchOther {
		t.Errorf("SearchOtherRetailers not forwarded to recommender")
	}
	if inferrer.retailer != "tottus" {
		t.Errorf("inferrer retailer = %q", inferrer.retailer)
	}
}

func TestBoletaPipeline_RetailerResolution(t *testing.T) {
	tests := []struct {
		name     string
		req      AnalyzeRequest
		expected string
	}{
		{"explicit alias", AnalyzeRequest{Retailer: "Plaza Vea", OCRText: "TOTTUS"}, "plazavea"},
		{"detected from text", AnalyzeRequest{OCRText: "SUPERMERCADOS W0NG"}, "wong"},
		{"unknown falls back to default", AnalyzeRequest{OCRText: "BODEGA DON PEPE"}, "tottus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &MockProductFinder{}
			pipeline := newTestPipeline(finder, nil, nil, PipelineConfig{})
			tt.req.Items = []domain.RawExtractedLineItem{{Name: "ARROZ", Quantity: 1}}

			boleta := pipeline.Analyze(context.Background(), tt.req)

			if boleta.Retailer != tt.expected {
				t.Errorf("Retailer = %q, want %q", boleta.Retailer, tt.expected)
			}
			if len(finder.collections) != 1 || finder.collections[0] != tt.expected {
				t.Errorf("matcher searched %v, want [%s]", finder.collections, tt.expected)
			}
		})
	}
}

func TestBoletaPipeline_NoInferrer(t *testing.T) {
	pipeline := newTestPipeline(&MockProductFinder{}, nil, nil, PipelineConfig{})

	boleta := pipeline.Analyze(context.Background(), AnalyzeRequest{
		Items: []domain.RawExtractedLineItem{{Name: "PRODUCTO X", Quantity: 1}},
	})

	if boleta.Items[0].CO2Source != domain.CO2SourceUnclassified {
		t.Errorf("source = %s, want unclassified", boleta.Items[0].CO2Source)
	}
	if boleta.Summary.CO2PerKg != 0 || boleta.Summary.Tier != domain.TierLow {
		t.Errorf("summary = %+v", boleta.Summary)
	}
}

func TestBoletaPipeline_EmptyReceipt(t *testing.T) {
	pipeline := newTestPipeline(&MockProductFinder{}, nil, nil, PipelineConfig{})

	boleta := pipeline.Analyze(context.Background(), AnalyzeRequest{OCRText: "METRO"})

	if boleta.Retailer != "metro" || len(boleta.Items) != 0 {
		t.Errorf("boleta = %+v", boleta)
	}
}

func TestBoletaPipeline_ManyItemsKeepOrder(t *testing.T) {
	finder := &MockProductFinder{matches: map[string]*domain.ClassifiedLineItem{}}
	items := make([]domain.RawExtractedLineItem, 50)
	for i := range items {
		name := string(rune('A'+i%26)) + string(rune('a'+i/26))
		items[i] = domain.RawExtractedLineItem{Name: name, Quantity: 1}
		finder.matches[name] = &domain.ClassifiedLineItem{CanonicalCategory: "Pollo", CO2FactorPerUnit: float64(i + 1), CO2Source: domain.CO2SourceCatalog}
	}
	pipeline := newTestPipeline(finder, nil, nil, PipelineConfig{MaxWorkers: 8})

	boleta := pipeline.Analyze(context.Background(), AnalyzeRequest{Items: items})

	for i, item := range boleta.Items {
		if item.Name != items[i].Name || item.CO2FactorPerUnit != float64(i+1) {
			t.Fatalf("item %d = %q/%v, want %q/%v", i, item.Name, item.CO2FactorPerUnit, items[i].Name, float64(i+1))
		}
	}
}

func TestGreenPoints(t *testing.T) {
	tests := []struct {
		tier  domain.ImpactTier
		local bool
		eco   bool
		want  int
	}{
		{domain.TierLow, false, false, 10},
		{domain.TierLow, true, true, 14},
		{domain.TierMedium, false, false, 3},
		{domain.TierMedium, true, false, 5},
		{domain.TierHigh, false, false, 0},
		{domain.TierHigh, false, true, 2},
	}

	for _, tt := range tests {
		item := domain.AnalyzedItem{Verdict: domain.ImpactVerdict{Tier: tt.tier}}
		item.IsLocal = tt.local
		item.HasEcoPackaging = tt.eco
		if got := greenPoints(item); got != tt.want {
			t.Errorf("greenPoints(%s, local=%v, eco=%v) = %d, want %d", tt.tier, tt.local, tt.eco, got, tt.want)
		}
	}
}

package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultMaxWorkers = 4

// Green points awarded per classified line
const (
	greenPointsLow          = 10
	greenPointsMedium       = 3
	greenPointsHigh         = 0
	greenPointsLocal        = 2
	greenPointsEcoPackaging = 2
)

// ProductFinder looks a product up in a retailer catalog
type ProductFinder interface {
	FindSimilarProduct(ctx context.Context, productName, collection string, validateCO2 bool) *domain.ClassifiedLineItem
}

// CategoryInferrer guesses a category when the catalog has no match
type CategoryInferrer interface {
	InferCategory(ctx context.Context, productName, retailer string) domain.CategoryInference
}

// AlternativeFinder suggests lower-footprint products
type AlternativeFinder interface {
	FindAlternatives(ctx context.Context, product domain.ClassifiedLineItem, originRetailer string, searchOtherRetailers bool) []domain.RecommendedAlternative
}

// PipelineConfig holds the orchestration settings
type PipelineConfig struct {
	MaxWorkers           int
	ValidateCO2          bool
	SearchOtherRetailers bool
}

// AnalyzeRequest is one receipt to analyze. Retailer, when set, overrides detection from OCRText.
type AnalyzeRequest struct {
	OCRText             string                        `json:"ocrText"`
	Retailer            string                        `json:"retailer,omitempty"`
	Items               []domain.RawExtractedLineItem `json:"items" binding:"required,dive"`
	IncludeAlternatives bool                          `json:"includeAlternatives"`
}

// BoletaPipeline turns extracted receipt lines into a classified, scored receipt
type BoletaPipeline struct {
	detector    *SupermarketDetector
	matcher     ProductFinder
	inferrer    CategoryInferrer
	recommender AlternativeFinder
	units       *UnitNormalizer
	classifier  *ImpactClassifier
	taxonomy    *domain.MasterTaxonomy
	config      PipelineConfig
	log         zerolog.Logger
	now         func() time.Time
}

// NewBoletaPipeline wires the pipeline. inferrer and recommender may be nil.
func NewBoletaPipeline(
	detector *SupermarketDetector,
	matcher ProductFinder,
	inferrer CategoryInferrer,
	recommender AlternativeFinder,
	units *UnitNormalizer,
	classifier *ImpactClassifier,
	taxonomy *domain.MasterTaxonomy,
	config PipelineConfig,
	logger zerolog.Logger,
) *BoletaPipeline {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = defaultMaxWorkers
	}

	return &BoletaPipeline{
		detector:    detector,
		matcher:     matcher,
		inferrer:    inferrer,
		recommender: recommender,
		units:       units,
		classifier:  classifier,
		taxonomy:    taxonomy,
		config:      config,
		log:         logger.With().Str("component", "boleta_pipeline").Logger(),
		now:         time.Now,
	}
}

// Analyze classifies every line of the receipt and aggregates the totals.
// Lines are processed concurrently; the result keeps the input order.
func (p *BoletaPipeline) Analyze(ctx context.Context, req AnalyzeRequest) *domain.AnalyzedBoleta {
	start := p.now()
	retailer := p.resolveRetailer(req)

	items := make([]domain.AnalyzedItem, len(req.Items))

	type workItem struct {
		index int
		raw   domain.RawExtractedLineItem
	}
	workChan := make(chan workItem, len(req.Items))
	for i, raw := range req.Items {
		workChan <- workItem{index: i, raw: raw}
	}
	close(workChan)

	workers := p.config.MaxWorkers
	if workers > len(req.Items) {
		workers = len(req.Items)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				items[item.index] = p.analyzeItem(ctx, item.raw, retailer, req.IncludeAlternatives)
			}
		}()
	}
	wg.Wait()

	boleta := &domain.AnalyzedBoleta{
		ID:         uuid.New(),
		Retailer:   retailer,
		Items:      items,
		Summary:    summarize(items),
		AnalyzedAt: p.now().UTC(),
	}

	p.log.Info().
		Str("boleta_id", boleta.ID.String()).
		Str("retailer", retailer).
		Int("items", len(items)).
		Int("matched", boleta.Summary.MatchedCount).
		Float64("total_co2", boleta.Summary.TotalCO2).
		Str("tier", string(boleta.Summary.Tier)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("boleta analyzed")

	return boleta
}

func (p *BoletaPipeline) resolveRetailer(req AnalyzeRequest) string {
	if strings.TrimSpace(req.Retailer) != "" {
		return p.detector.NormalizeName(req.Retailer)
	}
	return p.detector.Detect(req.OCRText)
}

func (p *BoletaPipeline) analyzeItem(ctx context.Context, raw domain.RawExtractedLineItem, retailer string, includeAlternatives bool) domain.AnalyzedItem {
	if raw.Quantity <= 0 {
		raw.Quantity = 1
	}

	item := domain.AnalyzedItem{ClassifiedLineItem: p.classify(ctx, raw, retailer)}
	item.Matched = item.CO2Source == domain.CO2SourceCatalog || item.CO2Source == domain.CO2SourceLLMCorrected

	category := item.CanonicalCategory
	if size, unit, ok := ExtractDeclaredSize(raw.Name); ok {
		item.Unit = unit
		item.WeightKg = p.units.NormalizeToKg(size*raw.Quantity, unit, category)
	} else {
		item.Unit = "unit"
		item.WeightKg = p.units.NormalizeToKg(raw.Quantity, "unit", category)
	}

	if item.CO2Source == domain.CO2SourceUnclassified {
		return item
	}

	item.TotalCO2 = item.CO2FactorPerUnit * item.WeightKg
	item.Verdict = p.classifier.Classify(retailer, category, item.CO2FactorPerUnit)
	item.GreenPoints = greenPoints(item)

	if includeAlternatives && p.recommender != nil && item.Verdict.Tier != domain.TierLow {
		item.Alternatives = p.recommender.FindAlternatives(ctx, item.ClassifiedLineItem, retailer, p.config.SearchOtherRetailers)
	}

	return item
}

// classify resolves category and CO2 factor: catalog match, then LLM category with the
// taxonomy mean footprint, then unclassified
func (p *BoletaPipeline) classify(ctx context.Context, raw domain.RawExtractedLineItem, retailer string) domain.ClassifiedLineItem {
	if match := p.matcher.FindSimilarProduct(ctx, raw.Name, retailer, p.config.ValidateCO2); match != nil {
		classified := *match
		classified.RawExtractedLineItem = raw
		return classified
	}

	classified := domain.ClassifiedLineItem{
		RawExtractedLineItem: raw,
		CanonicalCategory:    domain.Uncategorized,
		CO2Source:            domain.CO2SourceUnclassified,
	}
	if p.inferrer == nil {
		return classified
	}

	inference := p.inferrer.InferCategory(ctx, raw.Name, retailer)
	classified.CategoryConfidence = inference.Confidence

	entry, ok := p.taxonomy.Lookup(inference.Category)
	if inference.Category == domain.Uncategorized || !ok {
		return classified
	}

	classified.CanonicalCategory = inference.Category
	classified.CanonicalSubcategory = inference.Category
	classified.CO2FactorPerUnit = entry.MeanFootprintPerKg
	classified.CO2Source = domain.CO2SourceTaxonomy
	return classified
}

func greenPoints(item domain.AnalyzedItem) int {
	points := greenPointsHigh
	switch item.Verdict.Tier {
	case domain.TierLow:
		points = greenPointsLow
	case domain.TierMedium:
		points = greenPointsMedium
	}
	if item.IsLocal {
		points += greenPointsLocal
	}
	if item.HasEcoPackaging {
		points += greenPointsEcoPackaging
	}
	return points
}

// summarize aggregates the classified lines. Unclassified lines count as unmatched
// and stay out of the weight and CO2 totals.
func summarize(items []domain.AnalyzedItem) domain.BoletaSummary {
	var s domain.BoletaSummary

	for _, item := range items {
		if item.Matched {
			s.MatchedCount++
		} else {
			s.UnmatchedCount++
		}
		if item.CO2Source == domain.CO2SourceUnclassified {
			continue
		}

		s.TotalWeightKg += item.WeightKg
		s.TotalCO2 += item.TotalCO2
		s.GreenPoints += item.GreenPoints

		switch item.Verdict.Tier {
		case domain.TierLow:
			s.LowCount++
		case domain.TierMedium:
			s.MediumCount++
		case domain.TierHigh:
			s.HighCount++
		}
	}

	if s.TotalWeightKg > 0 {
		s.CO2PerKg = s.TotalCO2 / s.TotalWeightKg
	}
	s.Tier = ClassifyWithRule(DefaultThresholdRule, s.CO2PerKg).Tier

	return s
}

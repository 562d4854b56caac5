package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/ecoboleta/backend/internal/infrastructure/llm"
	"github.com/rs/zerolog"
)

// Confidence of an inference, by outcome
const (
	inferenceConfidenceAccepted = 0.85
	inferenceConfidenceOffList  = 0.3
	inferenceConfidenceFailed   = 0.0
	defaultInferenceTemperature = 0.1
)

// The schema checks shape only. List membership is checked in code so an
// off-list label can be told apart from a malformed answer.
var categoryInferenceSchema = llm.MustCompileSchema("category_inference", map[string]any{
	"type":     "object",
	"required": []string{"category"},
	"properties": map[string]any{
		"category":  map[string]any{"type": "string"},
		"reasoning": map[string]any{"type": "string"},
	},
})

type categoryInferenceAnswer struct {
	Category  string `json:"category"`
	Reasoning string `json:"reasoning"`
}

// CategoryLister returns the categories a retailer's catalog may produce
type CategoryLister interface {
	Categories(retailer string) []string
}

// CategoryInferenceService asks the LLM to place a product in one of the retailer's categories
type CategoryInferenceService struct {
	llm         domain.ChatCompleter
	categories  CategoryLister
	temperature float64
	log         zerolog.Logger
}

// NewCategoryInferenceService creates the LLM category fallback.
// A non-positive temperature uses 0.1.
func NewCategoryInferenceService(completer domain.ChatCompleter, categories CategoryLister, temperature float64, logger zerolog.Logger) *CategoryInferenceService {
	if temperature <= 0 {
		temperature = defaultInferenceTemperature
	}
	return &CategoryInferenceService{
		llm:         completer,
		categories:  categories,
		temperature: temperature,
		log:         logger.With().Str("component", "category_inference").Logger(),
	}
}

// InferCategory never fails. Off-list answers yield Uncategorized at 0.3,
// provider or parsing failures yield Uncategorized at 0.0.
func (s *CategoryInferenceService) InferCategory(ctx context.Context, productName, retailer string) domain.CategoryInference {
	logger := s.log.With().Str("product", productName).Str("retailer", retailer).Logger()

	allowed := s.categories.Categories(retailer)
	if len(allowed) == 0 {
		return domain.CategoryInference{
			Category:   domain.Uncategorized,
			Confidence: inferenceConfidenceFailed,
			Reasoning:  fmt.Sprintf("no categories configured for retailer %q", retailer),
		}
	}

	raw, err := s.llm.Complete(ctx, buildCategoryPrompt(productName, allowed), s.temperature)
	if err != nil {
		logger.Warn().Err(err).Msg("category inference failed")
		return failedInference(err)
	}

	var answer categoryInferenceAnswer
	if err := llm.DecodeValidated(raw, categoryInferenceSchema, &answer); err != nil {
		logger.Warn().Err(err).Msg("category inference answer rejected")
		return failedInference(err)
	}

	category := strings.TrimSpace(answer.Category)
	for _, candidate := range allowed {
		if candidate == category {
			reasoning := strings.TrimSpace(answer.Reasoning)
			if reasoning == "" {
				reasoning = fmt.Sprintf("model chose %q from the allowed list", category)
			}
			return domain.CategoryInference{
				Category:   category,
				Confidence: inferenceConfidenceAccepted,
				Reasoning:  reasoning,
			}
		}
	}

	logger.Info().Str("answer", category).Msg("inferred category not in allowed list")
	return domain.CategoryInference{
		Category:   domain.Uncategorized,
		Confidence: inferenceConfidenceOffList,
		Reasoning:  fmt.Sprintf("model answered %q, which is not an allowed category", category),
	}
}

func failedInference(err error) domain.CategoryInference {
	return domain.CategoryInference{
		Category:   domain.Uncategorized,
		Confidence: inferenceConfidenceFailed,
		Reasoning:  "inference failed: " + err.Error(),
	}
}

func buildCategoryPrompt(productName string, allowed []string) string {
	var b strings.Builder
	b.WriteString("Clasifica el siguiente producto de supermercado en UNA de las categorías permitidas.\n\n")
	b.WriteString("Producto: ")
	b.WriteString(productName)
	b.WriteString("\n\nCategorías permitidas (usa el texto exacto):\n")
	for _, c := range allowed {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\nResponde solo con un objeto JSON: {\"category\": \"<categoría>\", \"reasoning\": \"<explicación breve>\"}")
	return b.String()
}

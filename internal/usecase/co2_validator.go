package usecase

import (
	"context"
	"fmt"

	"github.com/ecoboleta/backend/internal/domain"
	"github.com/ecoboleta/backend/internal/infrastructure/llm"
	"github.com/rs/zerolog"
)

// CO2Validation is the LLM verdict on a catalog CO2e figure
type CO2Validation struct {
	Valid         bool
	SuggestedCO2  float64
	HasSuggestion bool
	Reason        string
}

// Override reports whether the suggested value should replace the catalog value
func (v CO2Validation) Override() bool {
	return !v.Valid && v.HasSuggestion && v.SuggestedCO2 > 0
}

var co2ValidationSchema = llm.MustCompileSchema("co2_validation", map[string]any{
	"type":     "object",
	"required": []string{"is_valid"},
	"properties": map[string]any{
		"is_valid":      map[string]any{"type": "boolean"},
		"suggested_co2": map[string]any{"type": []string{"number", "null"}, "minimum": 0},
		"reason":        map[string]any{"type": "string"},
	},
})

type co2ValidationAnswer struct {
	IsValid      bool     `json:"is_valid"`
	SuggestedCO2 *float64 `json:"suggested_co2"`
	Reason       string   `json:"reason"`
}

// CO2Validator asks the LLM whether a catalog CO2e-per-kg figure is plausible
type CO2Validator struct {
	llm         domain.ChatCompleter
	temperature float64
	log         zerolog.Logger
}

// NewCO2Validator creates a validator on top of a chat completion provider
func NewCO2Validator(completer domain.ChatCompleter, temperature float64, logger zerolog.Logger) *CO2Validator {
	return &CO2Validator{
		llm:         completer,
		temperature: temperature,
		log:         logger.With().Str("component", "co2_validator").Logger(),
	}
}

// Validate returns the verdict for (name, co2, category). Callers decide the fail-open policy.
func (v *CO2Validator) Validate(ctx context.Context, productName string, co2PerKg float64, category string) (CO2Validation, error) {
	raw, err := v.llm.Complete(ctx, buildCO2ValidationPrompt(productName, co2PerKg, category), v.temperature)
	if err != nil {
		return CO2Validation{}, err
	}

	var answer co2ValidationAnswer
	if err := llm.DecodeValidated(raw, co2ValidationSchema, &answer); err != nil {
		return CO2Validation{}, err
	}

	result := CO2Validation{Valid: answer.IsValid, Reason: answer.Reason}
	if answer.SuggestedCO2 != nil {
		result.SuggestedCO2 = *answer.SuggestedCO2
		result.HasSuggestion = true
	}

	v.log.Debug().
		Str("product", productName).
		Float64("co2", co2PerKg).
		Bool("valid", result.Valid).
		Float64("suggested", result.SuggestedCO2).
		Msg("co2 validated")

	return result, nil
}

func buildCO2ValidationPrompt(productName string, co2PerKg float64, category string) string {
	return fmt.Sprintf(`Evalúa si la huella de carbono declarada es plausible para este producto de supermercado.

Producto: %s
Categoría: %s
Huella declarada: %.2f kg CO2e por kg

Responde solo con un objeto JSON con esta forma:
{"is_valid": true|false, "suggested_co2": número o null, "reason": "explicación breve"}

Si la huella no es plausible, indica en "suggested_co2" un valor realista en kg CO2e por kg.`,
		productName, category, co2PerKg)
}

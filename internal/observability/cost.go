package observability

import (
	"strconv"

	"github.com/moodtunes/moodtunes-api/internal/llm"
)

// Pricing constants (USD per 1K tokens)
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	geminiFlashInputPrice  = 0.000075
	geminiFlashOutputPrice = 0.0003

	geminiProInputPrice  = 0.00125
	geminiProOutputPrice = 0.005

	gpt4oInputPrice  = 0.005
	gpt4oOutputPrice = 0.015

	gpt4oMiniInputPrice  = 0.00015
	gpt4oMiniOutputPrice = 0.0006
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64
	OutputPricePer1K float64
}

// PricingTable contains pricing for the models this app routes to
var PricingTable = map[string]ModelPricing{
	"gemini-3-flash-preview": {
		InputPricePer1K:  geminiFlashInputPrice,
		OutputPricePer1K: geminiFlashOutputPrice,
	},
	"gemini-2.5-flash": {
		InputPricePer1K:  geminiFlashInputPrice,
		OutputPricePer1K: geminiFlashOutputPrice,
	},
	"gemini-2.5-pro": {
		InputPricePer1K:  geminiProInputPrice,
		OutputPricePer1K: geminiProOutputPrice,
	},
	"gpt-4o": {
		InputPricePer1K:  gpt4oInputPrice,
		OutputPricePer1K: gpt4oOutputPrice,
	},
	"gpt-4o-mini": {
		InputPricePer1K:  gpt4oMiniInputPrice,
		OutputPricePer1K: gpt4oMiniOutputPrice,
	},
}

// CalculateCost estimates the cost in USD for one generation call
func CalculateCost(modelName string, usage *llm.TokenUsage) float64 {
	if usage == nil {
		return 0
	}

	pricing, exists := PricingTable[modelName]
	if !exists {
		// Default to flash pricing if model not found
		pricing = PricingTable["gemini-3-flash-preview"]
	}

	inputCost := (float64(usage.InputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(usage.OutputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}

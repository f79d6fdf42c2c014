package cost

// PerMillion is USD pricing per 1,000,000 tokens for one model.
type PerMillion struct {
	Input  float64
	Output float64
}

// defaultPricingKey is used for any model not present in the pricing
// table; unknown-model calls are tracked, never rejected.
const defaultPricingKey = "default"

// pricing is a compile-time constant pricing table. Update as providers
// change rates.
var pricing = map[string]PerMillion{
	"gpt-4o-mini":               {Input: 0.150, Output: 0.600},
	"gpt-4o":                    {Input: 0.250, Output: 1.000},
	"gpt-4-turbo":               {Input: 2.500, Output: 10.000},
	"gpt-3.5-turbo":             {Input: 0.500, Output: 1.500},
	"claude-3-haiku-20240307":   {Input: 0.250, Output: 1.250},
	"claude-3-sonnet-20240229":  {Input: 3.000, Output: 15.000},
	"claude-3-opus-20240229":    {Input: 15.000, Output: 75.000},
	defaultPricingKey:           {Input: 1.000, Output: 3.000},
}

// PriceFor returns the pricing for model, falling back to the default
// entry for unrecognized models.
func PriceFor(model string) PerMillion {
	if p, ok := pricing[model]; ok {
		return p
	}
	return pricing[defaultPricingKey]
}

// CalculateCost returns the USD cost of a call given token counts.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	p := PriceFor(model)
	return (float64(inputTokens)/1_000_000)*p.Input + (float64(outputTokens)/1_000_000)*p.Output
}

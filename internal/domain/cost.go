package domain

// KeyPrefix namespaces every key this service writes.
const KeyPrefix = "talent:"

// DefaultRatePer1K is the USD rate per 1000 tokens used for unknown models.
const DefaultRatePer1K = 0.0001

// RateTable maps a model identifier to its USD price per 1000 tokens.
type RateTable map[string]float64

// DefaultRates returns the built-in price list.
func DefaultRates() RateTable {
	return RateTable{
		"text-embedding-ada-002": 0.0001,
		"text-embedding-3-small": 0.00002,
		"text-embedding-3-large": 0.00013,
		"gpt-4o-mini":            0.00015,
		"gpt-4o":                 0.0025,
		"gpt-3.5-turbo":          0.0005,
	}
}

// Merge returns a copy of t with overrides applied.
func (t RateTable) Merge(overrides map[string]float64) RateTable {
	out := make(RateTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Rate returns the per-1K rate for model, or DefaultRatePer1K when unknown.
func (t RateTable) Rate(model string) float64 {
	if r, ok := t[model]; ok {
		return r
	}
	return DefaultRatePer1K
}

// Cost prices tokens as tokens/1000 * rate[model].
func (t RateTable) Cost(model string, tokens int) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000 * t.Rate(model)
}

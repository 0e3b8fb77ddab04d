package llm

// Model describes a chat model: its identifier, output-token ceiling,
// and per-million-token prices in USD.
type Model struct {
	Name            string
	MaxOutputTokens int
	PriceInput      float64 // USD per 1M input tokens
	PriceOutput     float64 // USD per 1M output tokens
}

// Per-provider catalogs. Declaration order is display order; the first
// entry is the default model for that provider.
//
// Prices are published vendor figures and are configuration data, not
// algorithm. Update them when vendors change pricing.

// https://docs.anthropic.com/en/docs/about-claude/models/all-models
var anthropicModels = []Model{
	{Name: "claude-3-7-sonnet-latest", MaxOutputTokens: 8192, PriceInput: 3.0, PriceOutput: 15.0},
	{Name: "claude-3-5-sonnet-latest", MaxOutputTokens: 8192, PriceInput: 3.0, PriceOutput: 15.0},
	{Name: "claude-3-5-haiku-latest", MaxOutputTokens: 4096, PriceInput: 0.8, PriceOutput: 4.0},
	{Name: "claude-3-5-sonnet-20240620", MaxOutputTokens: 8192, PriceInput: 3.0, PriceOutput: 15.0},
	{Name: "claude-3-opus-latest", MaxOutputTokens: 4096, PriceInput: 15.0, PriceOutput: 75.0},
	{Name: "claude-3-haiku-20240307", MaxOutputTokens: 4096, PriceInput: 0.25, PriceOutput: 1.25},
}

// https://platform.openai.com/docs/models
// https://openai.com/api/pricing/
var openaiModels = []Model{
	{Name: "gpt-4.1", MaxOutputTokens: 32768, PriceInput: 2.0, PriceOutput: 8.0},
	{Name: "gpt-4o", MaxOutputTokens: 16384, PriceInput: 2.5, PriceOutput: 10.0},
	{Name: "gpt-4.1-mini", MaxOutputTokens: 32768, PriceInput: 0.40, PriceOutput: 1.60},
	{Name: "gpt-4o-mini", MaxOutputTokens: 16384, PriceInput: 0.15, PriceOutput: 0.60},
	{Name: "gpt-4.1-nano", MaxOutputTokens: 32768, PriceInput: 0.10, PriceOutput: 0.40},
	{Name: "o3-mini", MaxOutputTokens: 100000, PriceInput: 1.10, PriceOutput: 4.40},
	{Name: "o1", MaxOutputTokens: 32768, PriceInput: 15.0, PriceOutput: 60.0},
	{Name: "o1-preview", MaxOutputTokens: 32768, PriceInput: 15.0, PriceOutput: 60.0},
}

// https://api-docs.deepseek.com/quick_start/pricing
var deepseekModels = []Model{
	{Name: "deepseek-chat", MaxOutputTokens: 4096, PriceInput: 0.14, PriceOutput: 0.28},
	{Name: "deepseek-reasoner", MaxOutputTokens: 8192, PriceInput: 0.55, PriceOutput: 2.19},
}

// findModel returns the catalog entry for name, or nil if absent.
func findModel(catalog []Model, name string) *Model {
	for i := range catalog {
		if catalog[i].Name == name {
			return &catalog[i]
		}
	}
	return nil
}

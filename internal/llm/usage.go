package llm

// Usage contains token counts reported by one logical operation: a single
// SendMessage call, or the sum across a GenerateFullResponse's internal calls.
type Usage struct {
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	Model               string
}

// add sums another call's counters into u. The model name of the most
// recent call wins.
func (u *Usage) add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
	if other.Model != "" {
		u.Model = other.Model
	}
}

// Cache pricing multipliers relative to the input-token price. Each
// vendor sets its own policy: anthropic bills cache writes above the
// input price, openai charges half price for cache reads.
type cacheRates struct {
	createMult float64
	readMult   float64
}

// defaultCacheRates applies when a provider declares nothing special:
// cache writes at input price, cache reads at 10% of it.
var defaultCacheRates = cacheRates{createMult: 1.0, readMult: 0.1}

// costFunc computes the USD cost of a usage snapshot against a catalog
// entry. Strategies may override the default to encode vendor quirks.
type costFunc func(u Usage, m *Model) float64

// standardCost is the base pricing formula. Pure: re-derivable from the
// four counters and the model entry alone.
func standardCost(rates cacheRates) costFunc {
	return func(u Usage, m *Model) float64 {
		inputs := float64(u.InputTokens) * m.PriceInput / 1e6
		outputs := float64(u.OutputTokens) * m.PriceOutput / 1e6
		cacheCreate := float64(u.CacheCreationTokens) * m.PriceInput * rates.createMult / 1e6
		cacheRead := float64(u.CacheReadTokens) * m.PriceInput * rates.readMult / 1e6
		return inputs + outputs + cacheCreate + cacheRead
	}
}

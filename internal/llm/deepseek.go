package llm

import "context"

const deepseekBaseURL = "https://api.deepseek.com"

// deepseekReasonerCacheReadPrice is the flat USD-per-1M price Deepseek
// charges for cache hits on the reasoner model, independent of the
// model's input price.
const deepseekReasonerCacheReadPrice = 0.14

// deepseekStrategy builds the Deepseek variant: an OpenAI-shaped API whose
// usage report splits prompt tokens into cache-hit and cache-miss buckets.
func deepseekStrategy(apiKey string) *Strategy {
	return &Strategy{
		provider:   "deepseek",
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		catalog:    deepseekModels,
		cost:       deepseekCost,
		send:       deepseekSend,
		lengthStop: "length",
	}
}

// deepseekCost prices the default model like the base formula (cache reads
// at 10% of input price) but the reasoner model's cache reads at a fixed
// absolute rate.
func deepseekCost(u Usage, m *Model) float64 {
	if m.Name != "deepseek-reasoner" {
		return standardCost(cacheRates{createMult: 1.0, readMult: 0.1})(u, m)
	}
	inputs := float64(u.InputTokens) * m.PriceInput / 1e6
	outputs := float64(u.OutputTokens) * m.PriceOutput / 1e6
	cacheCreate := float64(u.CacheCreationTokens) * m.PriceInput / 1e6
	cacheRead := float64(u.CacheReadTokens) * deepseekReasonerCacheReadPrice / 1e6
	return inputs + outputs + cacheCreate + cacheRead
}

type deepseekRequest struct {
	Model            string          `json:"model"`
	Messages         []openaiMessage `json:"messages"`
	Temperature      float64         `json:"temperature"`
	MaxTokens        int             `json:"max_tokens"`
	TopP             float64         `json:"top_p"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
}

type deepseekResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens          int `json:"prompt_tokens"`
		CompletionTokens      int `json:"completion_tokens"`
		PromptCacheHitTokens  int `json:"prompt_cache_hit_tokens"`
		PromptCacheMissTokens int `json:"prompt_cache_miss_tokens"`
	} `json:"usage"`
}

// deepseekSend prepends the system prompt as a standard system-role message.
// Cache-miss tokens map to cache-creation; both buckets are subtracted from
// prompt_tokens to recover the true non-cached input count.
func deepseekSend(ctx context.Context, s *Strategy, req Request) (*Response, error) {
	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	payload := deepseekRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        1,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}

	var resp deepseekResponse
	if err := s.postJSON(ctx, "/chat/completions", headers, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: s.provider, Message: "response contained no choices"}
	}

	hit := resp.Usage.PromptCacheHitTokens
	miss := resp.Usage.PromptCacheMissTokens
	return &Response{
		Content:    resp.Choices[0].Message.Content,
		StopReason: resp.Choices[0].FinishReason,
		Usage: Usage{
			InputTokens:         resp.Usage.PromptTokens - hit - miss,
			OutputTokens:        resp.Usage.CompletionTokens,
			CacheCreationTokens: miss,
			CacheReadTokens:     hit,
			Model:               req.Model,
		},
	}, nil
}

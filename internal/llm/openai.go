package llm

import "context"

const openaiBaseURL = "https://api.openai.com"

// openaiStrategy builds the OpenAI variant: Chat Completions with the
// system prompt delivered as a developer-role message, and cache reads
// priced at 50% of input tokens.
func openaiStrategy(apiKey string) *Strategy {
	return &Strategy{
		provider:   "openai",
		apiKey:     apiKey,
		baseURL:    openaiBaseURL,
		catalog:    openaiModels,
		cost:       standardCost(cacheRates{createMult: 1.0, readMult: 0.5}),
		send:       openaiSend,
		lengthStop: "length",
	}
}

// reasoningModels reject sampling parameters and take their output ceiling
// through max_completion_tokens instead of max_tokens.
var reasoningModels = map[string]bool{
	"o1":      true,
	"o1-mini": true,
	"o3-mini": true,
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model               string          `json:"model"`
	Messages            []openaiMessage `json:"messages"`
	Temperature         *float64        `json:"temperature,omitempty"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	TopP                *float64        `json:"top_p,omitempty"`
	FrequencyPenalty    *float64        `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64        `json:"presence_penalty,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message      openaiMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		PromptTokensDetails struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

// openaiSend prepends a non-empty system prompt as a developer message and
// routes reasoning models through max_completion_tokens without sampling
// parameters. Cached prompt tokens are subtracted from prompt_tokens to
// recover the non-cached input count.
func openaiSend(ctx context.Context, s *Strategy, req Request) (*Response, error) {
	messages := make([]openaiMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "developer", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	payload := openaiRequest{
		Model:    req.Model,
		Messages: messages,
	}
	if reasoningModels[req.Model] {
		payload.MaxCompletionTokens = req.MaxTokens
	} else {
		zero := 0.0
		one := 1.0
		temp := req.Temperature
		payload.Temperature = &temp
		payload.MaxTokens = req.MaxTokens
		payload.TopP = &one
		payload.FrequencyPenalty = &zero
		payload.PresencePenalty = &zero
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.apiKey,
	}

	var resp openaiResponse
	if err := s.postJSON(ctx, "/v1/chat/completions", headers, payload, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: s.provider, Message: "response contained no choices"}
	}

	cached := resp.Usage.PromptTokensDetails.CachedTokens
	return &Response{
		Content:    resp.Choices[0].Message.Content,
		StopReason: resp.Choices[0].FinishReason,
		Usage: Usage{
			InputTokens:     resp.Usage.PromptTokens - cached,
			OutputTokens:    resp.Usage.CompletionTokens,
			CacheReadTokens: cached,
			Model:           req.Model,
		},
	}, nil
}

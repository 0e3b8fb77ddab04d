package llm

import "context"

const anthropicBaseURL = "https://api.anthropic.com"

// anthropicStrategy builds the Anthropic variant: Messages API with
// structured content blocks, ephemeral prompt caching, and cache writes
// priced 25% above input tokens / cache reads at 10% of them.
func anthropicStrategy(apiKey string) *Strategy {
	return &Strategy{
		provider:   "anthropic",
		apiKey:     apiKey,
		baseURL:    anthropicBaseURL,
		catalog:    anthropicModels,
		cost:       standardCost(cacheRates{createMult: 1.25, readMult: 0.1}),
		send:       anthropicSend,
		lengthStop: "max_tokens",
	}
}

// anthropicCacheBreakpoints is the API's limit on cache_control markers
// per request.
const anthropicCacheBreakpoints = 4

type anthropicContentBlock struct {
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	CacheControl *anthropicCache `json:"cache_control,omitempty"`
}

type anthropicCache struct {
	Type string `json:"type"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
	TopP        float64            `json:"top_p"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

// anthropicSend wraps messages as content blocks and annotates up to four
// of them (the first message, and each of the last up-to-6 messages whose
// role is "user") with an ephemeral cache hint so repeated prompt prefixes
// hit the server-side cache. The system prompt goes in its own field.
func anthropicSend(ctx context.Context, s *Strategy, req Request) (*Response, error) {
	messages := make([]anthropicMessage, 0, len(req.Messages))
	breakpoints := 0
	for i, m := range req.Messages {
		block := anthropicContentBlock{Type: "text", Text: m.Content}
		if (i == 0 || i >= len(req.Messages)-6) &&
			breakpoints < anthropicCacheBreakpoints &&
			m.Role == RoleUser {
			breakpoints++
			block.CacheControl = &anthropicCache{Type: "ephemeral"}
		}
		messages = append(messages, anthropicMessage{
			Role:    m.Role,
			Content: []anthropicContentBlock{block},
		})
	}

	payload := anthropicRequest{
		Model:       req.Model,
		System:      req.SystemPrompt,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        1,
	}

	headers := map[string]string{
		"x-api-key":         s.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp anthropicResponse
	if err := s.postJSON(ctx, "/v1/messages", headers, payload, &resp); err != nil {
		return nil, err
	}

	var content string
	if len(resp.Content) > 0 {
		content = resp.Content[0].Text
	}

	return &Response{
		Content:    content,
		StopReason: resp.StopReason,
		Usage: Usage{
			InputTokens:         resp.Usage.InputTokens,
			OutputTokens:        resp.Usage.OutputTokens,
			CacheCreationTokens: resp.Usage.CacheCreationInputTokens,
			CacheReadTokens:     resp.Usage.CacheReadInputTokens,
			Model:               req.Model,
		},
	}, nil
}

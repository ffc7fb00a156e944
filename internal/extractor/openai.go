package extractor

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAICompleter talks to any OpenAI-compatible chat completions API (Groq by default).
type OpenAICompleter struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

func NewOpenAICompleter(apiKey, baseURL, model string, temperature float64, maxTokens int) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompleter{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

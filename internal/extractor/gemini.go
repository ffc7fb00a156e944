package extractor

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiCompleter uses the Gemini API with JSON response mode.
type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiCompleter builds the client; baseURL is only set in tests.
func NewGeminiCompleter(ctx context.Context, apiKey, baseURL, model string, temperature float64, maxTokens int) (*GeminiCompleter, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model, temperature: temperature, maxTokens: maxTokens}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.temperature)),
		MaxOutputTokens:  int32(c.maxTokens),
		ResponseMIMEType: "application/json",
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

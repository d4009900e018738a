package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama3-70b-8192"
)

// GroqProvider talks to Groq through its OpenAI-compatible endpoint.
type GroqProvider struct {
	client *openai.Client
	model  string
}

var _ Provider = (*GroqProvider)(nil)

func NewGroqProvider(apiKey, model string) *GroqProvider {
	if model == "" {
		model = DefaultGroqModel
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = groqBaseURL

	return &GroqProvider{client: openai.NewClientWithConfig(config), model: model}
}

func (g *GroqProvider) Name() string {
	return "groq"
}

func (g *GroqProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a market analysis specialist. Always answer with valid JSON when asked for structured output.",
			},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (g *GroqProvider) Test(ctx context.Context) error {
	_, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 8,
	})
	return err
}

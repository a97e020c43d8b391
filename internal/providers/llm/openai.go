package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompatible talks to any OpenAI-style chat completion endpoint,
// including self-hosted gateways (set baseURL).
type OpenAICompatible struct {
	api   *openai.Client
	model string
}

func NewOpenAICompatible(baseURL, apiKey, modelName string) *OpenAICompatible {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAICompatible{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

func (c *OpenAICompatible) Close() error { return nil }

func (c *OpenAICompatible) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode == 503) {
			return "", ErrOverloaded
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

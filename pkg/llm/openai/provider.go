package openai

import (
	"context"
	"errors"
	"fmt"
	"math"

	"chat-with-pdf-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.New("openai: completion has no choices")

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client    *goopenai.Client
	ModelName string
	Defaults  llm.Options
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(client *goopenai.Client, modelName string, defaults ...llm.Option) *OpenAIProvider {
	return &OpenAIProvider{
		client:    client,
		ModelName: modelName,
		Defaults:  llm.ApplyOptions(llm.Options{}, defaults...),
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(p.Defaults, opts...)

	model := p.ModelName
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature(options.Temperature),
		MaxTokens:   options.MaxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// temperature maps 0 to the smallest positive float32 because the request
// field is omitempty and a dropped 0 would fall back to the server default.
func temperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

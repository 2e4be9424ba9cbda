package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const openAIBatchSize = 256

// OpenAIProvider talks to any OpenAI-compatible embeddings endpoint,
// including AI gateways that proxy it under a different base URL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(client *openai.Client, model string) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model}
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.GenerateBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) GenerateBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += openAIBatchSize {
		end := start + openAIBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.model),
			Input: texts[start:end],
		})
		if err != nil {
			return nil, fmt.Errorf("openai embeddings: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), end-start)
		}

		for _, item := range resp.Data {
			idx := start + item.Index
			if idx < start || idx >= end {
				return nil, errors.New("openai embeddings: response index out of range")
			}
			out[idx] = normalizeVector(item.Embedding)
		}
	}
	return out, nil
}

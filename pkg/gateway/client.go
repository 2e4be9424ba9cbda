package gateway

import (
	"errors"
	"fmt"

	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/llm/factory"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var ErrMissingAPIKey = errors.New("gateway: api key is required for the openai provider")

type Config struct {
	Provider       string
	BaseURL        string
	APIKey         string
	EmbeddingModel string
	LLMModel       string
	Temperature    float32
	MaxTokens      int
}

// Client hands out the embedding model and the chat model behind one AI
// gateway. Both share the same endpoint and credentials.
type Client struct {
	cfg       Config
	openai    *goopenai.Client
	embedding embedding.EmbeddingProvider
}

type Option func(*Client)

// WithEmbeddingCache serves repeated embedding requests from cache.
func WithEmbeddingCache(cache embedding.Cache) Option {
	return func(c *Client) {
		if cache != nil {
			c.embedding = embedding.NewCachedProvider(c.embedding, cache)
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{cfg: cfg}

	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		oc := goopenai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		c.openai = goopenai.NewClientWithConfig(oc)
		c.embedding = embedding.NewOpenAIProvider(c.openai, cfg.EmbeddingModel)
	case ProviderOllama:
		c.embedding = embedding.NewOllamaProvider(cfg.BaseURL, cfg.EmbeddingModel)
	default:
		return nil, fmt.Errorf("gateway: unsupported provider %q", cfg.Provider)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Embeddings() embedding.EmbeddingProvider {
	return c.embedding
}

func (c *Client) ChatModel() (llm.LLMProvider, error) {
	return factory.NewLLMProvider(c.cfg.Provider, c.cfg.LLMModel, c.cfg.BaseURL, c.openai,
		llm.WithTemperature(float64(c.cfg.Temperature)),
		llm.WithMaxTokens(c.cfg.MaxTokens),
	)
}

func (c *Client) Provider() string { return c.cfg.Provider }

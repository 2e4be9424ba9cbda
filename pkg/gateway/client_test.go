package gateway

import (
	"testing"

	"chat-with-pdf-be/pkg/embedding"
	"chat-with-pdf-be/pkg/llm/ollama"
	llmopenai "chat-with-pdf-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "openai", cfg: Config{Provider: ProviderOpenAI, APIKey: "k", EmbeddingModel: "text-embedding-3-small", LLMModel: "gpt-4o"}},
		{name: "openai without key", cfg: Config{Provider: ProviderOpenAI}, wantErr: true},
		{name: "ollama", cfg: Config{Provider: ProviderOllama, LLMModel: "llama3"}},
		{name: "unknown", cfg: Config{Provider: "bedrock"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c.Embeddings())

			chat, err := c.ChatModel()
			require.NoError(t, err)
			assert.NotNil(t, chat)
		})
	}
}

func TestChatModel_CarriesDefaults(t *testing.T) {
	c, err := New(Config{Provider: ProviderOpenAI, APIKey: "k", LLMModel: "gpt-4o", Temperature: 0, MaxTokens: 1000})
	require.NoError(t, err)

	chat, err := c.ChatModel()
	require.NoError(t, err)
	p, ok := chat.(*llmopenai.OpenAIProvider)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", p.ModelName)
	assert.Equal(t, 1000, p.Defaults.MaxTokens)
	assert.Equal(t, 0.0, p.Defaults.Temperature)

	c, err = New(Config{Provider: ProviderOllama, LLMModel: "llama3", MaxTokens: 10})
	require.NoError(t, err)
	chat, err = c.ChatModel()
	require.NoError(t, err)
	_, ok = chat.(*ollama.OllamaProvider)
	assert.True(t, ok)
}

func TestWithEmbeddingCache(t *testing.T) {
	c, err := New(Config{Provider: ProviderOllama}, WithEmbeddingCache(nil))
	require.NoError(t, err)
	_, cached := c.Embeddings().(*embedding.CachedProvider)
	assert.False(t, cached)
}

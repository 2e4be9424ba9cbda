package factory

import (
	"fmt"

	"chat-with-pdf-be/pkg/llm"
	"chat-with-pdf-be/pkg/llm/ollama"
	llmopenai "chat-with-pdf-be/pkg/llm/openai"

	goopenai "github.com/sashabaranov/go-openai"
)

// NewLLMProvider builds a chat model for the given gateway type. client is
// only used by the openai provider.
func NewLLMProvider(providerType, modelName, baseURL string, client *goopenai.Client, defaults ...llm.Option) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName, defaults...), nil
	case "openai":
		if client == nil {
			return nil, fmt.Errorf("openai provider requires a client")
		}
		return llmopenai.NewOpenAIProvider(client, modelName, defaults...), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-with-pdf-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_ZeroTemperatureIsSent(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   got.Model,
			Message: ollamaMessage{Role: "assistant", Content: "hello back"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3", llm.WithTemperature(0), llm.WithMaxTokens(1000))
	answer, err := p.Generate(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello back", answer)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options.Temperature)
	assert.Equal(t, 0.0, *got.Options.Temperature)
	assert.Equal(t, 1000, got.Options.NumPredict)
}

func TestChat_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-with-pdf-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, got *map[string]interface{}, reply string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		choices := []map[string]interface{}{}
		if reply != "" {
			choices = append(choices, map[string]interface{}{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": choices,
		})
	}))
}

func newProvider(url string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig("test-key")
	cfg.BaseURL = url + "/v1"
	return NewOpenAIProvider(goopenai.NewClientWithConfig(cfg), "gpt-4o",
		llm.WithTemperature(0), llm.WithMaxTokens(1000))
}

func TestChat_SendsDefaults(t *testing.T) {
	var got map[string]interface{}
	srv := newTestServer(t, &got, "The total is 42.")
	defer srv.Close()

	answer, err := newProvider(srv.URL).Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "what is the total?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "The total is 42.", answer)

	assert.Equal(t, "gpt-4o", got["model"])
	assert.EqualValues(t, 1000, got["max_tokens"])
	temp, ok := got["temperature"].(float64)
	require.True(t, ok, "temperature must be sent even when zero")
	assert.InDelta(t, 0, temp, 1e-6)

	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
}

func TestGenerate_OptionOverride(t *testing.T) {
	var got map[string]interface{}
	srv := newTestServer(t, &got, "ok")
	defer srv.Close()

	_, err := newProvider(srv.URL).Generate(context.Background(), "hi", llm.WithModel("gpt-4o-mini"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got["model"])
}

func TestChat_NoChoices(t *testing.T) {
	var got map[string]interface{}
	srv := newTestServer(t, &got, "")
	defer srv.Close()

	_, err := newProvider(srv.URL).Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

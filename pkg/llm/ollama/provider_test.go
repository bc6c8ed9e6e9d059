package ollama

import (
	"ai-agent-be/pkg/llm"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "assistant", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "hello there"},
			Done:    true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	out, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "hi"},
		{Role: "model", Content: "hey"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestOllamaProvider_SelectTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "get_weather", req.Tools[0].Function.Name)

		fmt.Fprint(w, `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"get_weather","arguments":{"city":"Paris"}}}]},"done":true}`)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	call, err := provider.SelectTool(context.Background(),
		[]llm.Message{{Role: "user", Content: "weather in Paris?"}},
		[]llm.Tool{{Name: "get_weather", Description: "Current weather"}},
	)
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, "get_weather", call.Name)
	assert.Equal(t, "Paris", call.Arguments["city"])
}

func TestOllamaProvider_SelectToolNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"no tool needed"},"done":true}`)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	call, err := provider.SelectTool(context.Background(),
		[]llm.Message{{Role: "user", Content: "hello"}},
		[]llm.Tool{{Name: "get_weather"}},
	)
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestOllamaProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3")
	stream, err := provider.Stream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	out, err := llm.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "missing")
	_, err := provider.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, err = provider.Stream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
}

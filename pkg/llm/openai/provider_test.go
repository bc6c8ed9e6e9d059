package openai

import (
	"ai-agent-be/pkg/llm"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionTemplate = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"gpt-test","choices":[{"index":0,"finish_reason":"stop","message":%s}]}`

func TestOpenAIProvider_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body["model"])
		msgs := body["messages"].([]interface{})
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, completionTemplate, `{"role":"assistant","content":"hi"}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "gpt-test")
	out, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestOpenAIProvider_SelectTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		tools := body["tools"].([]interface{})
		require.Len(t, tools, 1)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, completionTemplate,
			`{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_delivery","arguments":"{\"number\":\"JP123\"}"}}]}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "gpt-test")
	call, err := provider.SelectTool(context.Background(),
		[]llm.Message{{Role: "user", Content: "where is JP123"}},
		[]llm.Tool{{Name: "get_delivery", Parameters: map[string]interface{}{"type": "object"}}},
	)
	require.NoError(t, err)
	require.NotNil(t, call)
	assert.Equal(t, "get_delivery", call.Name)
	assert.Equal(t, "JP123", call.Arguments["number"])
}

func TestOpenAIProvider_SelectToolEmptyCatalog(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "http://127.0.0.1:1", "gpt-test")
	call, err := provider.SelectTool(context.Background(), []llm.Message{{Role: "user", Content: "x"}}, nil)
	require.NoError(t, err)
	assert.Nil(t, call)
}

func TestOpenAIProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-test\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "gpt-test")
	stream, err := provider.Stream(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)

	out, err := llm.Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

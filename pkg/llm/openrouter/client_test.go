package openrouter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/llm"
)

func newTestClient(srv *httptest.Server) *Client {
	return New("sk-or-test", srv.URL, "meta-llama/llama-3.3-70b-instruct", "ThinkThread", "https://thinkthread.example")
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_Defaults(t *testing.T) {
	c := New("sk-or-test", "", "", "", "")
	require.Equal(t, "https://openrouter.ai/api/v1", c.BaseURL)
	require.Equal(t, llm.ProviderOpenRouter, c.Name())

	c = New("sk-or-test", "http://proxy:9000/v1/", "", "", "")
	require.Equal(t, "http://proxy:9000/v1", c.BaseURL)
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

func TestClient_Chat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		require.Equal(t, "https://thinkthread.example", r.Header.Get("HTTP-Referer"))
		require.Equal(t, "ThinkThread", r.Header.Get("X-Title"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"model":"meta-llama/llama-3.3-70b-instruct"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{
			"id": "gen-123",
			"object": "chat.completion",
			"created": 1746000000,
			"model": "meta-llama/llama-3.3-70b-instruct",
			"choices": [{
				"index": 0,
				"message": { "role": "assistant", "content": "Hello from the cloud" },
				"finish_reason": "stop"
			}],
			"usage": { "prompt_tokens": 31, "completion_tokens": 9, "total_tokens": 40 }
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	reply, err := c.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Hello from the cloud", reply.Content)
	require.Equal(t, llm.ProviderOpenRouter, reply.Provider)
	require.Equal(t, "meta-llama/llama-3.3-70b-instruct", reply.Model)
	require.Equal(t, 31, reply.PromptTokens)
	require.Equal(t, 9, reply.CompletionTokens)
}

func TestClient_Chat_EmptyAPIKey(t *testing.T) {
	c := New("", "", "", "", "")
	_, err := c.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "api key")
}

func TestClient_Chat_RequestModelWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"model":"anthropic/claude-sonnet-4"`)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	reply, err := c.Chat(context.Background(), llm.ChatRequest{Model: "anthropic/claude-sonnet-4"})
	require.NoError(t, err)
	// The response carried no model id, so the requested one stands in.
	require.Equal(t, "anthropic/claude-sonnet-4", reply.Model)
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Chat_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)

	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, llm.ProviderOpenRouter, statusErr.Provider)
	require.Equal(t, 429, statusErr.StatusCode)
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Chat(context.Background(), llm.ChatRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

func TestClient_Models(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/models", r.URL.Path)
		require.Equal(t, "Bearer sk-or-test", r.Header.Get("Authorization"))
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{
			"data": [
				{ "id": "meta-llama/llama-3.3-70b-instruct", "name": "Meta: Llama 3.3 70B Instruct", "context_length": 131072 },
				{ "id": "mistralai/mistral-small", "context_length": 32768 }
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	models, err := c.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	require.Equal(t, "Meta: Llama 3.3 70B Instruct", models[0].Name)
	require.Equal(t, 131072, models[0].ContextLength)
	require.Equal(t, llm.ProviderOpenRouter, models[0].Provider)
	require.Equal(t, "mistralai/mistral-small", models[1].Name, "missing name falls back to id")
}

func TestClient_Models_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.Models(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

// ---------------------------------------------------------------------------
// Ping
// ---------------------------------------------------------------------------

func TestClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_Ping_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	err := c.Ping(context.Background())
	require.Error(t, err)

	status, ok := llm.UpstreamStatus(err)
	require.True(t, ok)
	require.Equal(t, 401, status)
}

package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/teddytown/internal/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     ai.Config
		wantErr error
	}{
		{
			name:    "unsupported provider",
			cfg:     ai.Config{Provider: "anthropomorphic", Model: "", APIKey: "", BaseURL: ""},
			wantErr: ai.ErrUnsupportedProvider,
		},
		{
			name:    "gemini without key",
			cfg:     ai.Config{Provider: ai.ProviderGemini, Model: "", APIKey: "", BaseURL: ""},
			wantErr: ai.ErrMissingAPIKey,
		},
		{
			name:    "openai without key",
			cfg:     ai.Config{Provider: ai.ProviderOpenAI, Model: "", APIKey: "", BaseURL: ""},
			wantErr: ai.ErrMissingAPIKey,
		},
		{
			name:    "ollama needs no key",
			cfg:     ai.Config{Provider: ai.ProviderOllama, Model: "", APIKey: "", BaseURL: ""},
			wantErr: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := ai.NewClient(ctx, tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, client.Close())
		})
	}
}

type openAIRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func fakeOpenAI(t *testing.T, reply string, requests chan<- openAIRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req openAIRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI(t *testing.T) {
	ctx := context.Background()

	t.Run("json mode", func(t *testing.T) {
		requests := make(chan openAIRequest, 1)
		srv := fakeOpenAI(t, `{"storyTitle":"Honey Heist"}`, requests)
		client, err := ai.NewClient(ctx, ai.Config{
			Provider: ai.ProviderOpenAI, Model: "", APIKey: "test-key", BaseURL: srv.URL + "/v1",
		})
		require.NoError(t, err)

		got, err := client.GenerateJSON(ctx, "make a mystery")
		require.NoError(t, err)
		assert.JSONEq(t, `{"storyTitle":"Honey Heist"}`, got)

		req := <-requests
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "make a mystery", req.Messages[0].Content)
	})

	t.Run("chat", func(t *testing.T) {
		requests := make(chan openAIRequest, 1)
		srv := fakeOpenAI(t, "It was un-bear-lievable!", requests)
		client, err := ai.NewClient(ctx, ai.Config{
			Provider: ai.ProviderOpenAI, Model: "gpt-test", APIKey: "test-key", BaseURL: srv.URL + "/v1",
		})
		require.NoError(t, err)

		history := []ai.Turn{
			{Role: ai.RoleUser, Text: "Hello"},
			{Role: ai.RoleModel, Text: "Howdy"},
		}
		got, err := client.Chat(ctx, "You are a bear.", history, "Where were you?")
		require.NoError(t, err)
		assert.Equal(t, "It was un-bear-lievable!", got)

		req := <-requests
		assert.Equal(t, "gpt-test", req.Model)
		assert.Nil(t, req.ResponseFormat)
		roles := make([]string, 0, len(req.Messages))
		for _, m := range req.Messages {
			roles = append(roles, m.Role)
		}
		assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
		assert.Equal(t, "Where were you?", req.Messages[3].Content)
	})

	t.Run("empty reply", func(t *testing.T) {
		requests := make(chan openAIRequest, 1)
		srv := fakeOpenAI(t, "", requests)
		client, err := ai.NewClient(ctx, ai.Config{
			Provider: ai.ProviderOpenAI, Model: "", APIKey: "test-key", BaseURL: srv.URL + "/v1",
		})
		require.NoError(t, err)
		_, err = client.Chat(ctx, "instruction", nil, "hi")
		require.ErrorIs(t, err, ai.ErrEmptyResponse)
	})
}

func TestOllama(t *testing.T) {
	ctx := context.Background()
	type ollamaRequest struct {
		Model    string          `json:"model"`
		Stream   *bool           `json:"stream"`
		Format   json.RawMessage `json:"format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	requests := make(chan ollamaRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests <- req
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"{\"ok\":true}"},"done":true}` + "\n"))
	}))
	t.Cleanup(srv.Close)

	client, err := ai.NewClient(ctx, ai.Config{Provider: ai.ProviderOllama, Model: "", APIKey: "", BaseURL: srv.URL})
	require.NoError(t, err)

	got, err := client.GenerateJSON(ctx, "make a mystery")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, got)

	req := <-requests
	assert.Equal(t, "llama3.2", req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	assert.JSONEq(t, `"json"`, string(req.Format))
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
}

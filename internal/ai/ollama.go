package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/ollama/ollama/api"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

type ollamaClient struct {
	client *api.Client
	model  string
}

func newOllamaClient(cfg Config) (*ollamaClient, error) {
	host := cfg.BaseURL
	if host == "" {
		host = defaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, errors.Wrap(err, "parse ollama host", slog.String("host", host))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &ollamaClient{client: api.NewClient(u, http.DefaultClient), model: model}, nil
}

func (c *ollamaClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, []api.Message{{Role: "user", Content: prompt}}, json.RawMessage(`"json"`)) //nolint:exhaustruct // text only
}

func (c *ollamaClient) Chat(ctx context.Context, instruction string, history []Turn, message string) (string, error) {
	messages := make([]api.Message, 0, len(history)+2) //nolint:mnd // instruction and message
	messages = append(messages, api.Message{Role: "system", Content: instruction}) //nolint:exhaustruct // text only
	for _, t := range history {
		role := "user"
		if t.Role == RoleModel {
			role = "assistant"
		}
		messages = append(messages, api.Message{Role: role, Content: t.Text}) //nolint:exhaustruct // text only
	}
	messages = append(messages, api.Message{Role: "user", Content: message}) //nolint:exhaustruct // text only
	return c.chat(ctx, messages, nil)
}

func (c *ollamaClient) chat(ctx context.Context, messages []api.Message, format json.RawMessage) (string, error) {
	stream := false
	req := &api.ChatRequest{ //nolint:exhaustruct // this is better for readability
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Format:   format,
	}
	var text string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		text += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "ollama chat", slog.String("model", c.model))
	}
	if text == "" {
		return "", errors.Wrap(ErrEmptyResponse, "read ollama chat", slog.String("model", c.model))
	}
	return text, nil
}

func (c *ollamaClient) Close() error {
	return nil
}

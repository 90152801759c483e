package ai

import (
	"context"
	"log/slog"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIClient struct {
	client *openai.Client
	model  string
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(ErrMissingAPIKey, "openai needs OPENAI_API_KEY")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &openAIClient{client: openai.NewClientWithConfig(config), model: model}, nil
}

func (c *openAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt}, //nolint:exhaustruct // text only
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{ //nolint:exhaustruct // no schema
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
}

func (c *openAIClient) Chat(ctx context.Context, instruction string, history []Turn, message string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2) //nolint:mnd // instruction and message
	messages = append(messages, openai.ChatCompletionMessage{ //nolint:exhaustruct // text only
		Role:    openai.ChatMessageRoleSystem,
		Content: instruction,
	})
	for _, t := range history {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Text}) //nolint:exhaustruct // text only
	}
	messages = append(messages, openai.ChatCompletionMessage{ //nolint:exhaustruct // text only
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	return c.complete(ctx, openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:    c.model,
		Messages: messages,
	})
}

func (c *openAIClient) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	completion, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion", slog.String("model", c.model))
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.Wrap(ErrEmptyResponse, "read chat completion", slog.String("model", c.model))
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *openAIClient) Close() error {
	return nil
}

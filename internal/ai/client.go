package ai

import (
	"context"
	"log/slog"

	"github.com/myrjola/teddytown/internal/errors"
)

var (
	ErrEmptyResponse       = errors.NewSentinel("model returned no text")
	ErrMissingAPIKey       = errors.NewSentinel("api key is required")
	ErrUnsupportedProvider = errors.NewSentinel("unsupported ai provider")
)

// Role is the author of a chat turn as the provider sees it.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior message of a chat.
type Turn struct {
	Role Role
	Text string
}

// JSONGenerator produces a single JSON document for a prompt.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Chatter replies to message in a chat seeded with history and steered by the system instruction.
type Chatter interface {
	Chat(ctx context.Context, instruction string, history []Turn, message string) (string, error)
}

// Client is a generative language model provider.
type Client interface {
	JSONGenerator
	Chatter
	Close() error
}

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

// Config selects and configures a provider. Empty Model and BaseURL fall back to the provider defaults.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	BaseURL  string
}

// NewClient creates the Client for cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case ProviderGemini:
		client, err = newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		client, err = newOpenAIClient(cfg)
	case ProviderOllama:
		client, err = newOllamaClient(cfg)
	default:
		return nil, errors.Wrap(ErrUnsupportedProvider, "select provider", slog.String("provider", string(cfg.Provider)))
	}
	if err != nil {
		return nil, errors.Wrap(err, "create ai client", slog.String("provider", string(cfg.Provider)))
	}
	return client, nil
}

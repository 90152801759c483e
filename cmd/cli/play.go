package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/myrjola/teddytown/internal/ai"
	"github.com/myrjola/teddytown/internal/apiclient"
	"github.com/myrjola/teddytown/internal/dialogue"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/logging"
	"github.com/myrjola/teddytown/internal/scenario"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// playConfig is filled from flags, TEDDYTOWN_* environment variables and the provider API keys.
type playConfig struct {
	Server       string `mapstructure:"server"`
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base_url"`
	Suspects     int    `mapstructure:"suspects"`
	Clues        int    `mapstructure:"clues"`
	GoogleAPIKey string `mapstructure:"google_api_key"`
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
}

func (cfg playConfig) aiConfig() ai.Config {
	provider := ai.Provider(cfg.Provider)
	apiKey := cfg.GoogleAPIKey
	if provider == ai.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	return ai.Config{Provider: provider, Model: cfg.Model, APIKey: apiKey, BaseURL: cfg.BaseURL}
}

func loadPlayConfig(cmd *cobra.Command) (playConfig, error) {
	var cfg playConfig
	v := viper.New()
	v.SetEnvPrefix("TEDDYTOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("google_api_key", "GOOGLE_API_KEY"); err != nil {
		return cfg, errors.Wrap(err, "bind GOOGLE_API_KEY")
	}
	if err := v.BindEnv("openai_api_key", "OPENAI_API_KEY"); err != nil {
		return cfg, errors.Wrap(err, "bind OPENAI_API_KEY")
	}
	// Flags use dashes, config keys underscores.
	if err := v.BindPFlag("base_url", cmd.Flags().Lookup("base-url")); err != nil {
		return cfg, errors.Wrap(err, "bind base-url flag")
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return cfg, errors.Wrap(err, "bind flags")
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{ //nolint:exhaustruct // cobra defaults are fine
		Use:   "play",
		Short: "Solve a freshly generated mystery",
		Long: `Generates a mystery and lets you question the bears of Teddy Town.

Type to ask the bear you are talking to. Commands:
  /talk <name>  approach another bear
  /suspects     list the cast
  /clues        list the clues
  /accuse       accuse the bear you are talking to
  /quit         leave Teddy Town

Without --server the models are called directly. Ctrl+C ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadPlayConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				AddSource:   false,
				Level:       slog.LevelWarn,
				ReplaceAttr: nil,
			})))

			b, closeBackend, err := newBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			g := newGame(b, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			return g.Run(ctx)
		},
	}
	cmd.Flags().String("server", "", "Teddy Town server URL, e.g. http://localhost:4000")
	cmd.Flags().String("provider", string(ai.ProviderGemini), "model provider: gemini, openai or ollama")
	cmd.Flags().String("model", "", "model name, defaults to the provider's default")
	cmd.Flags().String("base-url", "", "model provider base URL")
	cmd.Flags().Int("suspects", scenario.DefaultSuspects, "number of suspects to generate")
	cmd.Flags().Int("clues", scenario.DefaultClues, "number of clues to generate")
	return cmd
}

// newBackend talks to the server when one is configured and calls the model provider directly otherwise.
func newBackend(ctx context.Context, cfg playConfig, logger *slog.Logger) (backend, func(), error) {
	if cfg.Server != "" {
		return apiclient.New(strings.TrimSuffix(cfg.Server, "/"), nil), func() {}, nil
	}
	client, err := ai.NewClient(ctx, cfg.aiConfig())
	if err != nil {
		return nil, nil, errors.Wrap(err, "new ai client", slog.String("provider", cfg.Provider))
	}
	closeClient := func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close ai client", errors.SlogError(closeErr))
		}
	}
	return &localBackend{
		generator: scenario.NewGenerator(client, logger, scenario.WithCounts(cfg.Suspects, cfg.Clues)),
		responder: dialogue.NewResponder(client, logger),
	}, closeClient, nil
}

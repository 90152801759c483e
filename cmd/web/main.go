package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/teddytown/internal/ai"
	"github.com/myrjola/teddytown/internal/dialogue"
	"github.com/myrjola/teddytown/internal/envstruct"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/inflight"
	"github.com/myrjola/teddytown/internal/logging"
	"github.com/myrjola/teddytown/internal/pprofserver"
	"github.com/myrjola/teddytown/internal/repositories"
	"github.com/myrjola/teddytown/internal/scenario"
	"github.com/myrjola/teddytown/internal/sqlite"
)

type application struct {
	logger         *slog.Logger
	generator      *scenario.Generator
	responder      *dialogue.Responder
	sessionManager *scs.SessionManager
	games          *repositories.GameRepository
	inflight       *inflight.Registry[string]
	allowedOrigins []string
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"TEDDYTOWN_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the pprof server when set, e.g. localhost:6060.
	PprofAddr string `env:"TEDDYTOWN_PPROF_ADDR" envDefault:""`
	// SqliteURL is the URL to the SQLite database holding hosted sessions. The default keeps them in memory.
	SqliteURL string `env:"TEDDYTOWN_SQLITE_URL" envDefault:":memory:"`
	// AllowedOrigins is a comma-separated list of browser origins allowed by CORS.
	AllowedOrigins string `env:"TEDDYTOWN_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	AIProvider     string `env:"TEDDYTOWN_AI_PROVIDER" envDefault:"gemini"`
	AIModel        string `env:"TEDDYTOWN_AI_MODEL" envDefault:""`
	AIBaseURL      string `env:"TEDDYTOWN_AI_BASE_URL" envDefault:""`
	Suspects       int    `env:"TEDDYTOWN_SUSPECTS" envDefault:"3"`
	Clues          int    `env:"TEDDYTOWN_CLUES" envDefault:"3"`
	GoogleAPIKey   string `env:"GOOGLE_API_KEY" envDefault:""`
	OpenAIAPIKey   string `env:"OPENAI_API_KEY" envDefault:""`
}

func (cfg config) aiConfig() ai.Config {
	provider := ai.Provider(cfg.AIProvider)
	apiKey := cfg.GoogleAPIKey
	if provider == ai.ProviderOpenAI {
		apiKey = cfg.OpenAIAPIKey
	}
	return ai.Config{
		Provider: provider,
		Model:    cfg.AIModel,
		APIKey:   apiKey,
		BaseURL:  cfg.AIBaseURL,
	}
}

func splitOrigins(s string) []string {
	var origins []string
	for _, origin := range strings.Split(s, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err      error
		cfg      config
		aiClient ai.Client
		db       *sqlite.Database
	)

	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	if aiClient, err = ai.NewClient(ctx, cfg.aiConfig()); err != nil {
		return errors.Wrap(err, "new ai client")
	}
	defer func() {
		if closeErr := aiClient.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close ai client", errors.SlogError(closeErr))
		}
	}()

	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close database", errors.SlogError(closeErr))
		}
	}()

	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite.DB, 24*time.Hour) //nolint:mnd // once a day
	defer sessionStore.StopCleanup()
	sessionManager := scs.New()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = 12 * time.Hour //nolint:mnd // half a day
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.HttpOnly = true

	app := application{
		logger: logger,
		generator: scenario.NewGenerator(aiClient, logger,
			scenario.WithCounts(cfg.Suspects, cfg.Clues)),
		responder:      dialogue.NewResponder(aiClient, logger),
		sessionManager: sessionManager,
		games:          repositories.NewGameRepository(db, logger),
		inflight:       inflight.NewRegistry[string](),
		allowedOrigins: splitOrigins(cfg.AllowedOrigins),
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "configured server",
		slog.String("provider", cfg.AIProvider), slog.Int("suspects", cfg.Suspects), slog.Int("clues", cfg.Clues))

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}

package scenario

import (
	"context"
	"log/slog"
	"slices"

	"github.com/myrjola/teddytown/internal/ai"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/random"
)

// ErrMissingCompanion is logged when a generated scenario has no companion. The game still works without one.
var ErrMissingCompanion = errors.NewSentinel("scenario has no companion")

const (
	DefaultSuspects = 3
	DefaultClues    = 3
)

// Generator creates new scenarios with one model call each.
type Generator struct {
	client   ai.JSONGenerator
	logger   *slog.Logger
	intn     func(n int) int
	suspects int
	clues    int
}

type Option func(*Generator)

// WithCounts overrides the number of suspects and clues requested from the model. Non-positive values keep the
// defaults.
func WithCounts(suspects, clues int) Option {
	return func(g *Generator) {
		if suspects > 0 {
			g.suspects = suspects
		}
		if clues > 0 {
			g.clues = clues
		}
	}
}

// WithIntn sets the uniform source of the suspect shuffle.
func WithIntn(intn func(n int) int) Option {
	return func(g *Generator) {
		g.intn = intn
	}
}

func NewGenerator(client ai.JSONGenerator, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		client:   client,
		logger:   logger,
		intn:     nil,
		suspects: DefaultSuspects,
		clues:    DefaultClues,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the model for a scenario, validates it and shuffles the suspects. There is no retry.
func (g *Generator) Generate(ctx context.Context) (models.GameState, error) {
	text, err := g.client.GenerateJSON(ctx, Prompt(g.suspects, g.clues))
	if err != nil {
		return models.GameState{}, errors.Wrap(err, "generate scenario")
	}
	game, err := Parse(text)
	if err != nil {
		return models.GameState{}, errors.Wrap(err, "parse scenario")
	}

	game, hasCompanion := Normalize(game, g.intn)
	if !hasCompanion {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "degrading to suspects only",
			errors.SlogError(errors.Wrap(ErrMissingCompanion, "normalize scenario")))
	}
	if suspects := len(game.Characters) - boolToInt(hasCompanion); suspects != g.suspects {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "model returned unexpected suspect count",
			slog.Int("want", g.suspects), slog.Int("got", suspects))
	}
	g.logger.LogAttrs(ctx, slog.LevelInfo, "generated scenario",
		slog.String("title", game.StoryTitle), slog.Int("characters", len(game.Characters)))
	return game, nil
}

// Normalize orders the cast companion first, followed by the suspects in uniformly random order. Without a
// companion only the shuffled suspects remain and hasCompanion is false. The input game is left untouched.
func Normalize(game models.GameState, intn func(n int) int) (models.GameState, bool) {
	var (
		companion    models.Character
		hasCompanion bool
		suspects     = make([]models.Character, 0, len(game.Characters))
	)
	for _, c := range game.Characters {
		if c.IsCompanion() && !hasCompanion {
			companion, hasCompanion = c, true
			continue
		}
		suspects = append(suspects, c)
	}

	random.Shuffle(suspects, intn)

	if hasCompanion {
		game.Characters = slices.Insert(suspects, 0, companion)
	} else {
		game.Characters = suspects
	}
	game.Clues = slices.Clone(game.Clues)
	return game, hasCompanion
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

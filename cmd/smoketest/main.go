package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/myrjola/teddytown/internal/apiclient"
	"github.com/myrjola/teddytown/internal/e2etest"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/logging"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/session"
)

var errUnexpected = errors.NewSentinel("unexpected response")

// TestStateless generates a scenario and asks its first character a question.
func TestStateless(ctx context.Context, client *apiclient.Client) error {
	game, err := client.StartGame(ctx)
	if err != nil {
		return errors.Wrap(err, "start game")
	}
	if len(game.Characters) == 0 {
		return errors.Wrap(errUnexpected, "scenario without characters", slog.String("title", game.StoryTitle))
	}
	if _, err = client.Chat(ctx, models.ChatRequest{
		Messages:         []models.Message{{Role: models.RoleUser, Content: "Where were you last night?", Speaker: ""}},
		CurrentCharacter: game.Characters[0],
		GameState:        game,
	}); err != nil {
		return errors.Wrap(err, "chat")
	}
	return nil
}

// TestHostedSession plays a short hosted game and ends it.
func TestHostedSession(ctx context.Context, client *apiclient.Client) error {
	view, err := client.CreateSession(ctx)
	if err != nil {
		return errors.Wrap(err, "create session")
	}
	if view.Phase != session.PhaseReady {
		return errors.Wrap(errUnexpected, "session not ready", slog.String("phase", string(view.Phase)))
	}
	if _, err = client.SendMessage(ctx, "Who found the body?"); err != nil {
		return errors.Wrap(err, "send message")
	}
	accusation, err := client.Accuse(ctx)
	if err != nil {
		return errors.Wrap(err, "accuse")
	}
	if accusation.View.Phase != session.PhaseResolved {
		return errors.Wrap(errUnexpected, "session not resolved", slog.String("phase", string(accusation.View.Phase)))
	}
	if err = client.EndSession(ctx); err != nil {
		return errors.Wrap(err, "end session")
	}
	return nil
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		url      = "https://" + hostname
		client   *apiclient.Client
		err      error
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", url))
	// Scenario generation is a model call, give it time.
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute) //nolint:mnd // two minutes
	defer cancel()

	if client, err = e2etest.NewClient(url); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error creating client", errors.SlogError(err))
		os.Exit(1)
	}
	if err = client.Healthy(ctx); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not healthy", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestStateless(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing stateless endpoints", errors.SlogError(err))
		os.Exit(1)
	}
	if err = TestHostedSession(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "error testing hosted session", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌")
}

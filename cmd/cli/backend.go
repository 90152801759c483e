package main

import (
	"context"

	"github.com/myrjola/teddytown/internal/dialogue"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/scenario"
)

// backend produces scenarios and replies. [apiclient.Client] implements it against a server.
type backend interface {
	StartGame(ctx context.Context) (models.GameState, error)
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
}

// localBackend calls the model provider in-process.
type localBackend struct {
	generator *scenario.Generator
	responder *dialogue.Responder
}

func (b *localBackend) StartGame(ctx context.Context) (models.GameState, error) {
	game, err := b.generator.Generate(ctx)
	if err != nil {
		return models.GameState{}, errors.Wrap(err, "generate scenario")
	}
	return game, nil
}

func (b *localBackend) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	return b.responder.Respond(ctx, dialogue.Request{
		Messages:  req.Messages,
		Character: req.CurrentCharacter,
		Game:      req.GameState,
	}), nil
}

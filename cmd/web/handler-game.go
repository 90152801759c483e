package main

import (
	"log/slog"
	"net/http"

	"github.com/myrjola/teddytown/internal/dialogue"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
)

const generationFailedMessage = "Failed to generate story"

// startGame generates a fresh scenario. The client keeps the game state.
func (app *application) startGame(w http.ResponseWriter, r *http.Request) {
	game, err := app.generator.Generate(r.Context())
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "failed to generate story", errors.SlogError(err))
		app.writeError(w, http.StatusInternalServerError, generationFailedMessage)
		return
	}
	app.writeJSON(w, r, http.StatusOK, game)
}

// chat answers as the current character. It always responds with 200 and degrades to the fallback reply.
func (app *application) chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := readJSON(w, r, &req); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "undecodable chat request", errors.SlogError(err))
		app.writeJSON(w, r, http.StatusOK, models.ChatResponse{Response: dialogue.FallbackReply})
		return
	}
	reply := app.responder.Respond(r.Context(), dialogue.Request{
		Messages:  req.Messages,
		Character: req.CurrentCharacter,
		Game:      req.GameState,
	})
	app.writeJSON(w, r, http.StatusOK, models.ChatResponse{Response: reply})
}

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/myrjola/teddytown/internal/dialogue"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/logging"
	"github.com/myrjola/teddytown/internal/session"
)

var errNoSession = errors.NewSentinel("no game in session")

// accusationResponse is the body of POST /api/session/accusation.
type accusationResponse struct {
	Verdict session.Verdict `json:"verdict"`
	View    session.View    `json:"view"`
}

// hostedGame returns the game id bound to the session cookie and a context logging it.
func (app *application) hostedGame(r *http.Request) (context.Context, string, bool) {
	id := app.sessionManager.GetString(r.Context(), string(gameIDSessionKey))
	if id == "" {
		return r.Context(), "", false
	}
	return logging.WithAttrs(r.Context(), slog.String("gameID", id)), id, true
}

// createSession generates a scenario and binds a new hosted game to the session cookie. A previous game is ended.
func (app *application) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	game, err := app.generator.Generate(ctx)
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "failed to generate story", errors.SlogError(err))
		app.writeError(w, http.StatusInternalServerError, generationFailedMessage)
		return
	}
	s, err := session.New().Start(game)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "start session"))
		return
	}
	if previousCtx, previousID, ok := app.hostedGame(r); ok {
		app.endGame(previousCtx, previousID)
	}
	id, err := app.games.Create(ctx, s)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "create game"))
		return
	}
	if err = app.sessionManager.RenewToken(ctx); err != nil {
		app.serverError(w, r, errors.Wrap(err, "renew session token"))
		return
	}
	app.sessionManager.Put(ctx, string(gameIDSessionKey), id)
	app.logger.LogAttrs(ctx, slog.LevelInfo, "created hosted game", slog.String("gameID", id))
	app.writeJSON(w, r, http.StatusOK, s.PlayerView())
}

func (app *application) getSession(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := app.hostedGame(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, errNoSession)
		return
	}
	s, err := app.games.Get(ctx, id)
	if err != nil {
		app.sessionError(w, r.WithContext(ctx), err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, s.PlayerView())
}

// sendMessage asks the interlocutor and waits for the reply. The model call is registered in the in-flight registry
// so that switching, accusing or ending the game cancels it. The late reply is then rejected as stale.
func (app *application) sendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := app.hostedGame(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, errNoSession)
		return
	}
	r = r.WithContext(ctx)
	var body struct {
		Content string `json:"content"`
	}
	if err := readJSON(w, r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}

	var turn session.Turn
	if _, err := app.games.Update(ctx, id, func(s session.Session) (session.Session, error) {
		var next session.Session
		var err error
		next, turn, err = s.SendMessage(body.Content)
		return next, err
	}); err != nil {
		app.sessionError(w, r, err)
		return
	}

	callCtx, done := app.inflight.Begin(ctx, id)
	reply := app.responder.Respond(callCtx, dialogue.Request{
		Messages:  turn.Transcript,
		Character: turn.Character,
		Game:      turn.Game,
	})
	done()

	// The pending turn must be closed even if the player went away or the budget ran out.
	s, err := app.games.Update(context.WithoutCancel(ctx), id, func(s session.Session) (session.Session, error) {
		return s.ReceiveReply(turn.ID, reply)
	})
	if err != nil {
		app.sessionError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, s.PlayerView())
}

func (app *application) switchCharacter(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := app.hostedGame(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, errNoSession)
		return
	}
	r = r.WithContext(ctx)
	var body struct {
		CharacterID string `json:"characterId"`
	}
	if err := readJSON(w, r, &body); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err)
		return
	}
	s, err := app.games.Update(ctx, id, func(s session.Session) (session.Session, error) {
		return s.SwitchCharacter(body.CharacterID)
	})
	if err != nil {
		app.sessionError(w, r, err)
		return
	}
	app.inflight.Cancel(id)
	app.writeJSON(w, r, http.StatusOK, s.PlayerView())
}

func (app *application) accuse(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := app.hostedGame(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, errNoSession)
		return
	}
	r = r.WithContext(ctx)
	var verdict session.Verdict
	s, err := app.games.Update(ctx, id, func(s session.Session) (session.Session, error) {
		var next session.Session
		var err error
		next, verdict, err = s.Accuse()
		return next, err
	})
	if err != nil {
		app.sessionError(w, r, err)
		return
	}
	app.inflight.Cancel(id)
	app.logger.LogAttrs(ctx, slog.LevelInfo, "accusation", slog.String("outcome", string(verdict.Outcome)),
		slog.String("accused", verdict.Accused.Name))
	app.writeJSON(w, r, http.StatusOK, accusationResponse{Verdict: verdict, View: s.PlayerView()})
}

func (app *application) endSession(w http.ResponseWriter, r *http.Request) {
	ctx, id, ok := app.hostedGame(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound, errNoSession)
		return
	}
	app.endGame(ctx, id)
	app.sessionManager.Remove(ctx, string(gameIDSessionKey))
	w.WriteHeader(http.StatusNoContent)
}

// endGame cancels the in-flight call of the game and deletes it.
func (app *application) endGame(ctx context.Context, id string) {
	app.inflight.Cancel(id)
	if err := app.games.Delete(ctx, id); err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "failed to delete game", errors.SlogError(err))
	}
}

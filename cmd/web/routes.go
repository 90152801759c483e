package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthy", app.healthy)

	game := alice.New(noStore, app.executionBudget)
	mux.Handle("POST /start-game", game.ThenFunc(app.startGame))
	mux.Handle("POST /chat", game.ThenFunc(app.chat))

	hosted := game.Append(app.sessionManager.LoadAndSave)
	mux.Handle("POST /api/session", hosted.ThenFunc(app.createSession))
	mux.Handle("GET /api/session", hosted.ThenFunc(app.getSession))
	mux.Handle("DELETE /api/session", hosted.ThenFunc(app.endSession))
	mux.Handle("POST /api/session/messages", hosted.ThenFunc(app.sendMessage))
	mux.Handle("POST /api/session/interlocutor", hosted.ThenFunc(app.switchCharacter))
	mux.Handle("POST /api/session/accusation", hosted.ThenFunc(app.accuse))

	common := alice.New(app.recoverPanic, app.logRequest, app.cors, secureHeaders)
	return common.Then(mux)
}

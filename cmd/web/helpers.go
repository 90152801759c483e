package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/repositories"
	"github.com/myrjola/teddytown/internal/session"
)

const maxBodyBytes = 1 << 20

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "marshal response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		err = errors.Wrap(err, "write response")
		app.logger.LogAttrs(r.Context(), slog.LevelDebug, "client went away", errors.SlogError(err))
	}
}

// readJSON decodes the request body into v. Bodies over 1 MiB are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelDebug, http.StatusText(status),
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	message := http.StatusText(status)
	if err != nil {
		message = rootMessage(err)
	}
	app.writeError(w, status, message)
}

func (app *application) writeError(w http.ResponseWriter, status int, message string) {
	b, _ := json.Marshal(models.ErrorResponse{Error: message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// sessionError maps failed session transitions to client errors and everything else to a server error.
func (app *application) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrEmptyMessage):
		app.clientError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, session.ErrReplyPending), errors.Is(err, session.ErrStaleReply),
		errors.Is(err, session.ErrNotReady):
		app.clientError(w, r, http.StatusConflict, err)
	case errors.Is(err, session.ErrGameOver):
		app.clientError(w, r, http.StatusGone, err)
	case errors.Is(err, session.ErrUnknownCharacter), errors.Is(err, repositories.ErrGameNotFound):
		app.clientError(w, r, http.StatusNotFound, err)
	default:
		app.serverError(w, r, err)
	}
}

// rootMessage returns the message of the innermost error, which is the sentinel for session errors.
func rootMessage(err error) string {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

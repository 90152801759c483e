package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/myrjola/teddytown/internal/apiclient"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/healthy", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("POST /start-game", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to generate story"}`))
	})
	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: "Hello " + req.CurrentCharacter.Name})
	})
	mux.HandleFunc("POST /api/session/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"a reply is already pending"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL, nil)
	require.NoError(t, client.WaitForReady(ctx, "/api/healthy"))
	require.NoError(t, client.Healthy(ctx))

	reply, err := client.Chat(ctx, models.ChatRequest{
		Messages:         []models.Message{{Role: models.RoleUser, Content: "hi", Speaker: ""}},
		CurrentCharacter: models.Character{ID: "a", Name: "Baker Bruin", Role: "", Personality: "", IsKiller: false, SpriteColor: ""}, //nolint:lll // test data
		GameState:        models.GameState{}, //nolint:exhaustruct // empty
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Baker Bruin", reply)

	_, err = client.StartGame(ctx)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "Failed to generate story", statusErr.Message)

	_, err = client.SendMessage(ctx, "hello")
	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	assert.Zero(t, apiclient.StatusCode(nil))
}

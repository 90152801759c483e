// Package apiclient is a typed client for the Teddy Town HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/session"
)

// StatusError is returned for responses that are not 2xx.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// AccusationResponse is the body of POST /api/session/accusation.
type AccusationResponse struct {
	Verdict session.Verdict `json:"verdict"`
	View    session.View    `json:"view"`
}

type Client struct {
	client *http.Client
	url    string
}

// New creates a client for the server at url. Hosted sessions need httpClient to carry a cookie jar.
func New(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{client: httpClient, url: url}
}

func (c *Client) URL() string {
	return c.url
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.url+urlPath, nil); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready", slog.String("urlPath", urlPath))
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Healthy checks GET /api/healthy.
func (c *Client) Healthy(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/healthy", nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return errors.New("server is not healthy", slog.String("status", body.Status))
	}
	return nil
}

// StartGame generates a new scenario with POST /start-game.
func (c *Client) StartGame(ctx context.Context) (models.GameState, error) {
	var game models.GameState
	if err := c.do(ctx, http.MethodPost, "/start-game", nil, &game); err != nil {
		return models.GameState{}, err
	}
	return game, nil
}

// Chat asks the current character with POST /chat.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	var resp models.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// CreateSession starts a hosted game bound to the session cookie.
func (c *Client) CreateSession(ctx context.Context) (session.View, error) {
	return c.view(ctx, http.MethodPost, "/api/session", nil)
}

// GetSession returns the hosted game of the session cookie.
func (c *Client) GetSession(ctx context.Context) (session.View, error) {
	return c.view(ctx, http.MethodGet, "/api/session", nil)
}

// SendMessage asks the current interlocutor of the hosted game.
func (c *Client) SendMessage(ctx context.Context, content string) (session.View, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	return c.view(ctx, http.MethodPost, "/api/session/messages", body)
}

// SwitchCharacter approaches another character in the hosted game.
func (c *Client) SwitchCharacter(ctx context.Context, characterID string) (session.View, error) {
	body := struct {
		CharacterID string `json:"characterId"`
	}{CharacterID: characterID}
	return c.view(ctx, http.MethodPost, "/api/session/interlocutor", body)
}

// Accuse accuses the current interlocutor of the hosted game.
func (c *Client) Accuse(ctx context.Context) (AccusationResponse, error) {
	var resp AccusationResponse
	if err := c.do(ctx, http.MethodPost, "/api/session/accusation", nil, &resp); err != nil {
		return AccusationResponse{}, err
	}
	return resp, nil
}

// EndSession ends the hosted game.
func (c *Client) EndSession(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/session", nil, nil)
}

func (c *Client) view(ctx context.Context, method, urlPath string, body any) (session.View, error) {
	var view session.View
	if err := c.do(ctx, method, urlPath, body, &view); err != nil {
		return session.View{}, err
	}
	return view, nil
}

// do sends body as JSON and decodes the response into out unless out is nil.
func (c *Client) do(ctx context.Context, method, urlPath string, body any, out any) error {
	var (
		reqBody io.Reader = http.NoBody
		req     *http.Request
		resp    *http.Response
		err     error
	)
	if body != nil {
		var b []byte
		if b, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewReader(b)
	}
	if req, err = http.NewRequestWithContext(ctx, method, c.url+urlPath, reqBody); err != nil {
		return errors.Wrap(err, "create request", slog.String("method", method), slog.String("urlPath", urlPath))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if resp, err = c.client.Do(req); err != nil {
		return errors.Wrap(err, "do request", slog.String("method", method), slog.String("urlPath", urlPath))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return errors.Wrap(&StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}, "unexpected status",
			slog.String("method", method), slog.String("urlPath", urlPath))
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response", slog.String("urlPath", urlPath))
	}
	return nil
}

// StatusCode returns the HTTP status of err and zero if err is not a [StatusError].
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testScenario = `{
  "storyTitle": "The Honey Pot Heist",
  "victim": "Mr. Fluffington",
  "solution": "Mayor Cuddles wanted the honey fund.",
  "characters": [
    {"id": "baker", "name": "Baker Bruin", "role": "Baker", "personality": "Nervous", "isKiller": false, "spriteColor": "#a0522d"},
    {"id": "mayor", "name": "Mayor Cuddles", "role": "Mayor", "personality": "Pompous", "isKiller": true, "spriteColor": "#deb887"},
    {"id": "sheriff", "name": "Paws", "role": "Sheriff", "personality": "Brave", "isKiller": false, "spriteColor": "#8b4513"},
    {"id": "tailor", "name": "Tailor Stitch", "role": "Tailor", "personality": "Shy", "isKiller": false, "spriteColor": "#f5deb3"}
  ],
  "clues": [
    {"id": "c1", "name": "Sticky paw print", "description": "Honey on the door", "found": false}
  ]
}`
	testReply = "Paw-sitively not me!"
	// slowMessage makes the fake model hang until the call is cancelled.
	slowMessage = "slow"
	// failMessage makes the fake model fail.
	failMessage = "fail"
)

// fakeOpenAI is an OpenAI compatible chat completions backend.
type fakeOpenAI struct {
	server   *httptest.Server
	scenario atomic.Value
	// slowCalls receives a value whenever a slow call started.
	slowCalls chan struct{}
	// cancelled receives a value whenever a slow call was cancelled by the client.
	cancelled chan struct{}
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{
		server:    nil,
		scenario:  atomic.Value{},
		slowCalls: make(chan struct{}, 1),
		cancelled: make(chan struct{}, 1),
	}
	f.scenario.Store(testScenario)
	f.server = httptest.NewServer(http.HandlerFunc(f.chatCompletions))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOpenAI) baseURL() string {
	return f.server.URL + "/v1"
}

func (f *fakeOpenAI) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	if r.URL.Path != "/v1/chat/completions" || json.NewDecoder(r.Body).Decode(&req) != nil || len(req.Messages) == 0 {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
		return
	}

	content := testReply
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		content, _ = f.scenario.Load().(string)
	} else {
		switch req.Messages[len(req.Messages)-1].Content {
		case failMessage:
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
			return
		case slowMessage:
			f.slowCalls <- struct{}{}
			select {
			case <-r.Context().Done():
				f.cancelled <- struct{}{}
				return
			case <-time.After(10 * time.Second):
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

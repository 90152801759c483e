package models

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages         []Message `json:"messages"`
	CurrentCharacter Character `json:"currentCharacter"`
	GameState        GameState `json:"gameState"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

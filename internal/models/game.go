package models

import "strings"

// Character is a teddy bear in the scenario. Characters never change once the scenario is generated.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	IsKiller    bool   `json:"isKiller"`
	SpriteColor string `json:"spriteColor"`
}

// IsCompanion reports whether the character is the detective's sheriff companion.
func (c Character) IsCompanion() bool {
	return strings.Contains(strings.ToLower(c.Role), "sheriff")
}

// Clue is a piece of evidence. Found is carried along but nothing marks clues found.
type Clue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Found       bool   `json:"found"`
}

// GameState is a generated scenario. Characters are ordered companion first, then the shuffled suspects.
type GameState struct {
	StoryTitle      string      `json:"storyTitle"`
	Victim          string      `json:"victim"`
	Characters      []Character `json:"characters"`
	Clues           []Clue      `json:"clues"`
	Solution        string      `json:"solution"`
	CurrentLocation string      `json:"currentLocation"`
}

// Killer returns the killer and false if the scenario has none.
func (g GameState) Killer() (Character, bool) {
	for _, c := range g.Characters {
		if c.IsKiller {
			return c, true
		}
	}
	return Character{}, false
}

// Companion returns the first companion and false if the scenario has none.
func (g GameState) Companion() (Character, bool) {
	for _, c := range g.Characters {
		if c.IsCompanion() {
			return c, true
		}
	}
	return Character{}, false
}

// CharacterByID looks up a character by its id.
func (g GameState) CharacterByID(id string) (Character, bool) {
	for _, c := range g.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one line of the transcript. Speaker is the display name of whoever said it.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Speaker string `json:"speaker,omitempty"`
}

package scenario

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
)

// ErrGenerationParse is returned when the model reply does not match the scenario schema.
var ErrGenerationParse = errors.NewSentinel("generated scenario does not match schema")

// rawScenario mirrors the schema with pointers so that missing fields can be told apart from zero values.
type rawScenario struct {
	StoryTitle      *string        `json:"storyTitle"`
	Victim          *string        `json:"victim"`
	Solution        *string        `json:"solution"`
	CurrentLocation string         `json:"currentLocation"`
	Characters      []rawCharacter `json:"characters"`
	Clues           []rawClue      `json:"clues"`
}

type rawCharacter struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Role        *string `json:"role"`
	Personality *string `json:"personality"`
	IsKiller    *bool   `json:"isKiller"`
	SpriteColor string  `json:"spriteColor"`
}

type rawClue struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Found       bool    `json:"found"`
}

// Parse decodes and validates a generated scenario.
//
// Besides the required fields, the cast must have unique ids, exactly one killer, at most one companion and the
// companion must not be the killer. At least one clue is required. Every failure wraps [ErrGenerationParse].
func Parse(text string) (models.GameState, error) {
	var raw rawScenario
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return models.GameState{}, errors.Wrap(ErrGenerationParse, "decode json", slog.String("cause", err.Error()))
	}

	var missing []string
	require := func(field string, ok bool) {
		if !ok {
			missing = append(missing, field)
		}
	}
	require("storyTitle", nonBlank(raw.StoryTitle))
	require("victim", nonBlank(raw.Victim))
	require("solution", nonBlank(raw.Solution))
	require("characters", len(raw.Characters) > 0)
	require("clues", len(raw.Clues) > 0)
	for _, c := range raw.Characters {
		require("characters.id", nonBlank(c.ID))
		require("characters.name", nonBlank(c.Name))
		require("characters.role", nonBlank(c.Role))
		require("characters.personality", c.Personality != nil)
		require("characters.isKiller", c.IsKiller != nil)
	}
	for _, c := range raw.Clues {
		require("clues.id", nonBlank(c.ID))
		require("clues.name", nonBlank(c.Name))
		require("clues.description", nonBlank(c.Description))
	}
	if len(missing) > 0 {
		return models.GameState{}, errors.Wrap(ErrGenerationParse, "missing required fields",
			slog.String("fields", strings.Join(missing, ",")))
	}

	game := models.GameState{
		StoryTitle:      *raw.StoryTitle,
		Victim:          *raw.Victim,
		Solution:        *raw.Solution,
		CurrentLocation: raw.CurrentLocation,
		Characters:      make([]models.Character, 0, len(raw.Characters)),
		Clues:           make([]models.Clue, 0, len(raw.Clues)),
	}
	for _, c := range raw.Characters {
		game.Characters = append(game.Characters, models.Character{
			ID:          *c.ID,
			Name:        *c.Name,
			Role:        *c.Role,
			Personality: *c.Personality,
			IsKiller:    *c.IsKiller,
			SpriteColor: c.SpriteColor,
		})
	}
	for _, c := range raw.Clues {
		game.Clues = append(game.Clues, models.Clue{
			ID:          *c.ID,
			Name:        *c.Name,
			Description: *c.Description,
			Found:       c.Found,
		})
	}

	if err := validateCast(game.Characters); err != nil {
		return models.GameState{}, err
	}
	return game, nil
}

func validateCast(characters []models.Character) error {
	var (
		seen       = make(map[string]struct{}, len(characters))
		killers    int
		companions int
	)
	for _, c := range characters {
		if _, ok := seen[c.ID]; ok {
			return errors.Wrap(ErrGenerationParse, "duplicate character id", slog.String("id", c.ID))
		}
		seen[c.ID] = struct{}{}
		if c.IsKiller {
			killers++
		}
		if c.IsCompanion() {
			companions++
			if c.IsKiller {
				return errors.Wrap(ErrGenerationParse, "companion is the killer", slog.String("id", c.ID))
			}
		}
	}
	if killers != 1 {
		return errors.Wrap(ErrGenerationParse, "need exactly one killer", slog.Int("killers", killers))
	}
	if companions > 1 {
		return errors.Wrap(ErrGenerationParse, "need at most one companion", slog.Int("companions", companions))
	}
	return nil
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

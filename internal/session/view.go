package session

import (
	"slices"

	"github.com/myrjola/teddytown/internal/models"
)

// View is what the player is allowed to see of a session.
type View struct {
	Phase        Phase             `json:"phase"`
	StoryTitle   string            `json:"storyTitle,omitempty"`
	Victim       string            `json:"victim,omitempty"`
	Characters   []models.Character `json:"characters"`
	Clues        []models.Clue     `json:"clues"`
	Transcript   []models.Message  `json:"transcript"`
	Interlocutor string            `json:"interlocutorId,omitempty"`
	Typing       bool              `json:"typing"`
	Outcome      Outcome           `json:"outcome,omitempty"`
	AccusedID    string            `json:"accusedId,omitempty"`
	// Solution stays empty until the game is resolved.
	Solution string `json:"solution,omitempty"`
}

// PlayerView hides the killer and the solution until the game is resolved.
func (s Session) PlayerView() View {
	v := View{
		Phase:        s.Phase,
		StoryTitle:   "",
		Victim:       "",
		Characters:   []models.Character{},
		Clues:        []models.Clue{},
		Transcript:   slices.Clone(s.Transcript),
		Interlocutor: s.InterlocutorID,
		Typing:       s.Typing(),
		Outcome:      s.Outcome,
		AccusedID:    s.AccusedID,
		Solution:     "",
	}
	if v.Transcript == nil {
		v.Transcript = []models.Message{}
	}
	if s.Game == nil {
		return v
	}
	v.StoryTitle = s.Game.StoryTitle
	v.Victim = s.Game.Victim
	v.Clues = append(v.Clues, s.Game.Clues...)
	v.Characters = append(v.Characters, s.Game.Characters...)
	if s.Phase == PhaseResolved {
		v.Solution = s.Game.Solution
		return v
	}
	for i := range v.Characters {
		v.Characters[i].IsKiller = false
	}
	return v
}

// Package session is the state machine of one game of Teddy Town.
//
// A Session is a plain value. Every transition takes the current session and returns the next one without touching
// the input, so callers decide where sessions live: in memory for the terminal client or in SQLite for hosted games.
package session

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
)

var (
	ErrNotReady         = errors.NewSentinel("game is not ready")
	ErrGameOver         = errors.NewSentinel("game is over")
	ErrReplyPending     = errors.NewSentinel("a reply is already pending")
	ErrEmptyMessage     = errors.NewSentinel("message is empty")
	ErrUnknownCharacter = errors.NewSentinel("unknown character")
	ErrStaleReply       = errors.NewSentinel("reply is for a turn that is no longer pending")
	ErrNoCharacters     = errors.NewSentinel("scenario has no characters")
)

type Phase string

const (
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhaseResolved Phase = "resolved"
)

type Outcome string

const (
	OutcomeSolved Outcome = "solved"
	OutcomeWrong  Outcome = "wrong"
)

const (
	greetingTemplate = `(Sheriff %s tips his hat) "Detective! Thank goodness you're here. We have a situation. ` +
		`%s was found... un-stuffed. It's tragic. Ask me anything, or talk to the suspects."`
	approachTemplate = "*You approach %s.*"
	confusedMessage  = "The bear seems confused..."
	solvedTemplate   = "🎉 YOU SOLVED IT! %s was the killer!\n\nReason: %s"
	wrongTemplate    = "❌ WRONG! %s is innocent. The real killer got away..."
	systemSpeaker    = "System"
)

// Session is one player's game.
type Session struct {
	Phase Phase             `json:"phase"`
	Game  *models.GameState `json:"game,omitempty"`
	// Transcript is the conversation with the current interlocutor.
	Transcript     []models.Message `json:"transcript"`
	InterlocutorID string           `json:"interlocutorId,omitempty"`
	// PendingTurn is the id of the turn awaiting a reply, zero when nobody is typing.
	PendingTurn uint64 `json:"pendingTurn,omitempty"`
	// Turns counts issued turns so that ids are never reused.
	Turns     uint64  `json:"turns,omitempty"`
	Outcome   Outcome `json:"outcome,omitempty"`
	AccusedID string  `json:"accusedId,omitempty"`
}

// Turn is everything the dialogue responder needs to answer a sent message.
type Turn struct {
	ID         uint64
	Transcript []models.Message
	Character  models.Character
	Game       models.GameState
}

// Verdict is the result of an accusation.
type Verdict struct {
	Outcome Outcome          `json:"outcome"`
	Accused models.Character `json:"accused"`
	Message string           `json:"message"`
}

// New returns a session that waits for its scenario.
func New() Session {
	return Session{
		Phase:          PhaseLoading,
		Game:           nil,
		Transcript:     []models.Message{},
		InterlocutorID: "",
		PendingTurn:    0,
		Turns:          0,
		Outcome:        "",
		AccusedID:      "",
	}
}

// Start moves a loading session to ready. The companion, or the first character when there is none, greets the
// detective.
func (s Session) Start(game models.GameState) (Session, error) {
	if s.Phase != PhaseLoading {
		return s, errors.Wrap(ErrNotReady, "start", slog.String("phase", string(s.Phase)))
	}
	if len(game.Characters) == 0 {
		return s, errors.Wrap(ErrNoCharacters, "start")
	}
	greeter, ok := game.Companion()
	if !ok {
		greeter = game.Characters[0]
	}
	s.Phase = PhaseReady
	s.Game = &game
	s.InterlocutorID = greeter.ID
	s.Transcript = []models.Message{{
		Role:    models.RoleAssistant,
		Content: fmt.Sprintf(greetingTemplate, greeter.Name, game.Victim),
		Speaker: greeter.Name,
	}}
	return s, nil
}

// Interlocutor returns the character the player is talking to.
func (s Session) Interlocutor() (models.Character, bool) {
	if s.Game == nil {
		return models.Character{}, false
	}
	return s.Game.CharacterByID(s.InterlocutorID)
}

// Typing reports whether a reply is pending.
func (s Session) Typing() bool {
	return s.PendingTurn != 0
}

// SendMessage appends the player's message and opens a turn for the interlocutor's reply.
func (s Session) SendMessage(text string) (Session, Turn, error) {
	if err := s.checkReady("send message"); err != nil {
		return s, Turn{}, err
	}
	if strings.TrimSpace(text) == "" {
		return s, Turn{}, errors.Wrap(ErrEmptyMessage, "send message")
	}
	if s.Typing() {
		return s, Turn{}, errors.Wrap(ErrReplyPending, "send message", slog.Uint64("pendingTurn", s.PendingTurn))
	}
	character, ok := s.Interlocutor()
	if !ok {
		return s, Turn{}, errors.Wrap(ErrUnknownCharacter, "send message", slog.String("id", s.InterlocutorID))
	}

	s.Transcript = append(slices.Clone(s.Transcript), models.Message{
		Role:    models.RoleUser,
		Content: text,
		Speaker: "",
	})
	s.Turns++
	s.PendingTurn = s.Turns
	turn := Turn{
		ID:         s.PendingTurn,
		Transcript: slices.Clone(s.Transcript),
		Character:  character,
		Game:       *s.Game,
	}
	return s, turn, nil
}

// ReceiveReply appends the interlocutor's reply to the pending turn.
func (s Session) ReceiveReply(turnID uint64, text string) (Session, error) {
	character, err := s.closeTurn(turnID, "receive reply")
	if err != nil {
		return s, err
	}
	s.Transcript = append(slices.Clone(s.Transcript), models.Message{
		Role:    models.RoleAssistant,
		Content: text,
		Speaker: character.Name,
	})
	s.PendingTurn = 0
	return s, nil
}

// FailReply closes the pending turn when the reply never arrived.
func (s Session) FailReply(turnID uint64) (Session, error) {
	if _, err := s.closeTurn(turnID, "fail reply"); err != nil {
		return s, err
	}
	s.Transcript = append(slices.Clone(s.Transcript), models.Message{
		Role:    models.RoleSystem,
		Content: confusedMessage,
		Speaker: "",
	})
	s.PendingTurn = 0
	return s, nil
}

func (s Session) closeTurn(turnID uint64, op string) (models.Character, error) {
	if err := s.checkReady(op); err != nil {
		return models.Character{}, err
	}
	if !s.Typing() || turnID != s.PendingTurn {
		return models.Character{}, errors.Wrap(ErrStaleReply, op,
			slog.Uint64("turn", turnID), slog.Uint64("pendingTurn", s.PendingTurn))
	}
	character, ok := s.Interlocutor()
	if !ok {
		return models.Character{}, errors.Wrap(ErrUnknownCharacter, op, slog.String("id", s.InterlocutorID))
	}
	return character, nil
}

// SwitchCharacter starts a fresh conversation with another character. Any pending reply is dropped. Switching to the
// current interlocutor changes nothing.
func (s Session) SwitchCharacter(id string) (Session, error) {
	if err := s.checkReady("switch character"); err != nil {
		return s, err
	}
	character, ok := s.Game.CharacterByID(id)
	if !ok {
		return s, errors.Wrap(ErrUnknownCharacter, "switch character", slog.String("id", id))
	}
	if id == s.InterlocutorID {
		return s, nil
	}
	s.InterlocutorID = id
	s.PendingTurn = 0
	s.Transcript = []models.Message{{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(approachTemplate, character.Name),
		Speaker: systemSpeaker,
	}}
	return s, nil
}

// Accuse accuses the current interlocutor and ends the game.
func (s Session) Accuse() (Session, Verdict, error) {
	if err := s.checkReady("accuse"); err != nil {
		return s, Verdict{}, err
	}
	accused, ok := s.Interlocutor()
	if !ok {
		return s, Verdict{}, errors.Wrap(ErrUnknownCharacter, "accuse", slog.String("id", s.InterlocutorID))
	}
	verdict := Verdict{
		Outcome: OutcomeWrong,
		Accused: accused,
		Message: fmt.Sprintf(wrongTemplate, accused.Name),
	}
	if accused.IsKiller {
		verdict.Outcome = OutcomeSolved
		verdict.Message = fmt.Sprintf(solvedTemplate, accused.Name, s.Game.Solution)
	}
	s.Phase = PhaseResolved
	s.PendingTurn = 0
	s.Outcome = verdict.Outcome
	s.AccusedID = accused.ID
	return s, verdict, nil
}

func (s Session) checkReady(op string) error {
	switch s.Phase {
	case PhaseReady:
		return nil
	case PhaseResolved:
		return errors.Wrap(ErrGameOver, op)
	case PhaseLoading:
		return errors.Wrap(ErrNotReady, op)
	default:
		return errors.Wrap(ErrNotReady, op, slog.String("phase", string(s.Phase)))
	}
}

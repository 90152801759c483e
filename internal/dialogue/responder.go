package dialogue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/myrjola/teddytown/internal/ai"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
)

// FallbackReply is what a character says when the model could not answer.
const FallbackReply = "I... I forgot what I was saying. (AI Error)"

var errEmptyTranscript = errors.NewSentinel("transcript is empty")

const instructionTemplate = `
You are roleplaying as %s, a %s in Teddy Town.

GAME CONTEXT:
- Victim: %s
- Your Personality: %s
- Are you the killer?: %s
- The Real Killer is: %s

INSTRUCTIONS:
1. Keep responses short (max 2 sentences).
2. Use cute teddy bear puns if appropriate (e.g., un-bear-lievable, paw-sitive).
3. If you are the killer, act innocent but leave subtle contradictions.
4. If you are innocent, tell the truth about what you saw.
5. Never break character. You are a teddy bear.
`

// Request is one player turn addressed to Character.
type Request struct {
	Messages  []models.Message
	Character models.Character
	Game      models.GameState
}

// Responder plays the characters of a scenario.
type Responder struct {
	client ai.Chatter
	logger *slog.Logger
}

func NewResponder(client ai.Chatter, logger *slog.Logger) *Responder {
	return &Responder{client: client, logger: logger}
}

// Respond returns the character's reply to the newest message. It never fails: provider errors, empty replies and
// empty transcripts all yield [FallbackReply].
func (r *Responder) Respond(ctx context.Context, req Request) string {
	reply, err := r.respond(ctx, req)
	if err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "dialogue failed, using fallback reply",
			slog.String("character", req.Character.Name), errors.SlogError(err))
		return FallbackReply
	}
	return reply
}

func (r *Responder) respond(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", errEmptyTranscript
	}
	newest := req.Messages[len(req.Messages)-1]
	reply, err := r.client.Chat(ctx, BuildInstruction(req.Character, req.Game), AdaptHistory(req.Messages), newest.Content)
	if err != nil {
		return "", errors.Wrap(err, "chat with model", slog.Int("history", len(req.Messages)-1))
	}
	if reply == "" {
		return "", errors.Wrap(ai.ErrEmptyResponse, "chat with model")
	}
	return reply, nil
}

// BuildInstruction returns the system instruction for character. The real killer goes into the instruction so the
// model can plant contradictions. Players never see it.
func BuildInstruction(character models.Character, game models.GameState) string {
	isKiller := "NO"
	if character.IsKiller {
		isKiller = "YES"
	}
	var killerName string
	if killer, ok := game.Killer(); ok {
		killerName = killer.Name
	}
	return fmt.Sprintf(instructionTemplate,
		character.Name, character.Role, game.Victim, character.Personality, isKiller, killerName)
}

// AdaptHistory maps every message except the newest to a user turn.
func AdaptHistory(messages []models.Message) []ai.Turn {
	if len(messages) <= 1 {
		return []ai.Turn{}
	}
	turns := make([]ai.Turn, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		turns = append(turns, ai.Turn{Role: ai.RoleUser, Text: m.Content})
	}
	return turns
}

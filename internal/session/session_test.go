package session_test

import (
	"encoding/json"
	"testing"

	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame() models.GameState {
	return models.GameState{
		StoryTitle: "The Honey Pot Heist",
		Victim:     "Mr. Fluffington",
		Characters: []models.Character{
			{ID: "sheriff", Name: "Paws", Role: "Sheriff", Personality: "Brave", IsKiller: false, SpriteColor: "#8b4513"},
			{ID: "a", Name: "Baker Bruin", Role: "Baker", Personality: "Nervous", IsKiller: false, SpriteColor: "#a0522d"},
			{ID: "b", Name: "Mayor Cuddles", Role: "Mayor", Personality: "Pompous", IsKiller: true, SpriteColor: "#deb887"},
			{ID: "c", Name: "Tailor Stitch", Role: "Tailor", Personality: "Shy", IsKiller: false, SpriteColor: "#f5deb3"},
		},
		Clues:           []models.Clue{{ID: "c1", Name: "Honey", Description: "Sticky paw print", Found: false}},
		Solution:        "The mayor wanted the honey fund.",
		CurrentLocation: "",
	}
}

func started(t *testing.T) session.Session {
	t.Helper()
	s, err := session.New().Start(testGame())
	require.NoError(t, err)
	return s
}

func TestStart(t *testing.T) {
	s := started(t)
	assert.Equal(t, session.PhaseReady, s.Phase)
	assert.Equal(t, "sheriff", s.InterlocutorID)
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, models.RoleAssistant, s.Transcript[0].Role)
	assert.Equal(t, "Paws", s.Transcript[0].Speaker)
	assert.Equal(t, `(Sheriff Paws tips his hat) "Detective! Thank goodness you're here. We have a situation. `+
		`Mr. Fluffington was found... un-stuffed. It's tragic. Ask me anything, or talk to the suspects."`,
		s.Transcript[0].Content)

	t.Run("first character greets without companion", func(t *testing.T) {
		game := testGame()
		game.Characters = game.Characters[1:]
		s, err := session.New().Start(game)
		require.NoError(t, err)
		assert.Equal(t, "a", s.InterlocutorID)
		assert.Equal(t, "Baker Bruin", s.Transcript[0].Speaker)
	})

	t.Run("empty cast", func(t *testing.T) {
		game := testGame()
		game.Characters = nil
		_, err := session.New().Start(game)
		require.ErrorIs(t, err, session.ErrNoCharacters)
	})

	t.Run("already started", func(t *testing.T) {
		_, err := s.Start(testGame())
		require.ErrorIs(t, err, session.ErrNotReady)
	})
}

func TestConversation(t *testing.T) {
	s := started(t)

	next, turn, err := s.SendMessage("Who did it?")
	require.NoError(t, err)
	assert.Len(t, s.Transcript, 1, "input session must not change")
	assert.False(t, s.Typing())
	assert.True(t, next.Typing())
	require.Len(t, turn.Transcript, 2)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "Who did it?", Speaker: ""}, turn.Transcript[1])
	assert.Equal(t, "sheriff", turn.Character.ID)

	_, _, err = next.SendMessage("Hello?")
	require.ErrorIs(t, err, session.ErrReplyPending)

	_, err = next.ReceiveReply(turn.ID+1, "late")
	require.ErrorIs(t, err, session.ErrStaleReply)

	replied, err := next.ReceiveReply(turn.ID, "Un-bear-lievable!")
	require.NoError(t, err)
	assert.False(t, replied.Typing())
	require.Len(t, replied.Transcript, 3)
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "Un-bear-lievable!", Speaker: "Paws"},
		replied.Transcript[2])

	_, err = replied.ReceiveReply(turn.ID, "again")
	require.ErrorIs(t, err, session.ErrStaleReply)

	next, turn, err = replied.SendMessage("Really?")
	require.NoError(t, err)
	failed, err := next.FailReply(turn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Message{Role: models.RoleSystem, Content: "The bear seems confused...", Speaker: ""},
		failed.Transcript[len(failed.Transcript)-1])
	assert.False(t, failed.Typing())

	t.Run("blank message", func(t *testing.T) {
		_, _, err := s.SendMessage("   ")
		require.ErrorIs(t, err, session.ErrEmptyMessage)
	})

	t.Run("not started", func(t *testing.T) {
		_, _, err := session.New().SendMessage("hi")
		require.ErrorIs(t, err, session.ErrNotReady)
	})
}

func TestSwitchCharacter(t *testing.T) {
	s := started(t)
	s, _, err := s.SendMessage("Hi")
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c", "sheriff"} {
		switched, err := s.SwitchCharacter(id)
		require.NoError(t, err)
		if id == "sheriff" {
			assert.Equal(t, s, switched, "switching to the current interlocutor is a no-op")
			continue
		}
		require.Len(t, switched.Transcript, 1)
		assert.Equal(t, models.RoleSystem, switched.Transcript[0].Role)
		assert.Equal(t, "System", switched.Transcript[0].Speaker)
		character, _ := switched.Interlocutor()
		assert.Equal(t, "*You approach "+character.Name+".*", switched.Transcript[0].Content)
		assert.False(t, switched.Typing(), "pending reply is dropped")
	}

	pendingTurn := s.PendingTurn
	switched, err := s.SwitchCharacter("a")
	require.NoError(t, err)
	_, err = switched.ReceiveReply(pendingTurn, "late reply")
	require.ErrorIs(t, err, session.ErrStaleReply)

	_, err = s.SwitchCharacter("nobody")
	require.ErrorIs(t, err, session.ErrUnknownCharacter)
}

func TestAccuse(t *testing.T) {
	tests := []struct {
		accuse string
		want   session.Outcome
	}{
		{accuse: "sheriff", want: session.OutcomeWrong},
		{accuse: "a", want: session.OutcomeWrong},
		{accuse: "b", want: session.OutcomeSolved},
		{accuse: "c", want: session.OutcomeWrong},
	}
	for _, tt := range tests {
		t.Run(tt.accuse, func(t *testing.T) {
			s, err := started(t).SwitchCharacter(tt.accuse)
			require.NoError(t, err)
			resolved, verdict, err := s.Accuse()
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict.Outcome)
			assert.Equal(t, tt.accuse, verdict.Accused.ID)
			assert.Equal(t, session.PhaseResolved, resolved.Phase)
			assert.Equal(t, tt.want, resolved.Outcome)

			_, _, err = resolved.SendMessage("hello")
			require.ErrorIs(t, err, session.ErrGameOver)
			_, _, err = resolved.Accuse()
			require.ErrorIs(t, err, session.ErrGameOver)
		})
	}

	t.Run("messages", func(t *testing.T) {
		s, err := started(t).SwitchCharacter("b")
		require.NoError(t, err)
		_, verdict, err := s.Accuse()
		require.NoError(t, err)
		assert.Equal(t, "🎉 YOU SOLVED IT! Mayor Cuddles was the killer!\n\nReason: The mayor wanted the honey fund.",
			verdict.Message)

		s, err = started(t).SwitchCharacter("a")
		require.NoError(t, err)
		_, verdict, err = s.Accuse()
		require.NoError(t, err)
		assert.Equal(t, "❌ WRONG! Baker Bruin is innocent. The real killer got away...", verdict.Message)
	})

	t.Run("while typing drops the pending turn", func(t *testing.T) {
		s, turn, err := started(t).SendMessage("Confess!")
		require.NoError(t, err)
		resolved, _, err := s.Accuse()
		require.NoError(t, err)
		assert.False(t, resolved.Typing())
		_, err = resolved.ReceiveReply(turn.ID, "too late")
		require.ErrorIs(t, err, session.ErrGameOver)
	})
}

func TestPlayerView(t *testing.T) {
	s := started(t)
	view := s.PlayerView()
	assert.Empty(t, view.Solution)
	for _, c := range view.Characters {
		assert.False(t, c.IsKiller)
	}
	assert.True(t, s.Game.Characters[2].IsKiller, "view must not mutate the game")

	b, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "honey fund")

	resolved, _, err := s.Accuse()
	require.NoError(t, err)
	view = resolved.PlayerView()
	assert.Equal(t, "The mayor wanted the honey fund.", view.Solution)
	assert.True(t, view.Characters[2].IsKiller)

	loading := session.New().PlayerView()
	assert.Equal(t, session.PhaseLoading, loading.Phase)
	assert.Empty(t, loading.Characters)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s, _, err := started(t).SendMessage("Hi")
	require.NoError(t, err)
	b, err := json.Marshal(s)
	require.NoError(t, err)
	var decoded session.Session
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, s, decoded)
}

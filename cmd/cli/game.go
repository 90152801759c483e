package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/models"
	"github.com/myrjola/teddytown/internal/session"
	"github.com/schollz/closestmatch"
)

const helpText = "Ask away, or use /talk <name>, /suspects, /clues, /accuse and /quit."

// game is a terminal session. The session state lives here and the backend is only asked for scenarios and replies.
type game struct {
	backend backend
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
	session session.Session
	// names maps lowercased character names to ids.
	names   map[string]string
	matcher *closestmatch.ClosestMatch
}

func newGame(b backend, in io.Reader, out io.Writer, logger *slog.Logger) *game {
	return &game{
		backend: b,
		in:      in,
		out:     out,
		logger:  logger,
		session: session.New(),
		names:   map[string]string{},
		matcher: nil,
	}
}

// Run plays one game until the accusation, /quit, end of input or ctx cancellation.
func (g *game) Run(ctx context.Context) error {
	g.printf("Generating a mystery in Teddy Town...\n")
	scenario, err := g.backend.StartGame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			g.printf("Session ended.\n")
			return nil
		}
		return errors.Wrap(err, "start game")
	}
	if g.session, err = g.session.Start(scenario); err != nil {
		return errors.Wrap(err, "start session")
	}
	names := make([]string, 0, len(scenario.Characters))
	for _, c := range scenario.Characters {
		name := strings.ToLower(c.Name)
		g.names[name] = c.ID
		names = append(names, name)
	}
	g.matcher = closestmatch.New(names, []int{2, 3}) //nolint:mnd // bigrams and trigrams

	g.printf("\n=== %s ===\nVictim: %s\n%s\n\n", scenario.StoryTitle, scenario.Victim, helpText)
	g.printTranscript(0)

	lines := g.readLines()
	for {
		select {
		case <-ctx.Done():
			g.printf("\nSession ended.\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			done, cmdErr := g.handle(ctx, strings.TrimSpace(line))
			if cmdErr != nil {
				return cmdErr
			}
			if done {
				return nil
			}
		}
	}
}

func (g *game) readLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(g.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// handle executes one line of input and reports whether the game is over.
func (g *game) handle(ctx context.Context, line string) (bool, error) {
	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "":
		return false, nil
	case "/quit":
		g.printf("Goodbye, detective.\n")
		return true, nil
	case "/suspects":
		g.printSuspects()
		return false, nil
	case "/clues":
		g.printClues()
		return false, nil
	case "/talk":
		g.talk(strings.TrimSpace(arg))
		return false, nil
	case "/accuse":
		return g.accuse()
	}
	if strings.HasPrefix(command, "/") {
		g.printf("Unknown command %s. %s\n", command, helpText)
		return false, nil
	}
	return g.ask(ctx, line)
}

func (g *game) ask(ctx context.Context, text string) (bool, error) {
	next, turn, err := g.session.SendMessage(text)
	if err != nil {
		return false, errors.Wrap(err, "send message")
	}
	g.session = next
	from := len(g.session.Transcript)

	reply, err := g.backend.Chat(ctx, models.ChatRequest{
		Messages:         turn.Transcript,
		CurrentCharacter: turn.Character,
		GameState:        turn.Game,
	})
	if ctx.Err() != nil {
		// The reply to an interrupted question is never shown.
		g.printf("\nSession ended.\n")
		return true, nil
	}
	if err != nil {
		g.logger.LogAttrs(ctx, slog.LevelWarn, "chat failed", slog.String("character", turn.Character.Name),
			errors.SlogError(err))
		next, err = g.session.FailReply(turn.ID)
	} else {
		next, err = g.session.ReceiveReply(turn.ID, reply)
	}
	if err != nil {
		return false, errors.Wrap(err, "close turn")
	}
	g.session = next
	g.printTranscript(from)
	return false, nil
}

func (g *game) talk(query string) {
	if query == "" {
		g.printf("Talk to whom? Try /suspects.\n")
		return
	}
	id, ok := g.match(query)
	if !ok {
		g.printf("Nobody in Teddy Town goes by %q. Try /suspects.\n", query)
		return
	}
	next, err := g.session.SwitchCharacter(id)
	if err != nil {
		g.printf("You cannot approach %s.\n", query)
		return
	}
	switched := next.InterlocutorID != g.session.InterlocutorID
	g.session = next
	if !switched {
		character, _ := g.session.Interlocutor()
		g.printf("You are already talking to %s.\n", character.Name)
		return
	}
	g.printTranscript(0)
}

// match finds a character by id, by name or by the closest name.
func (g *game) match(query string) (string, bool) {
	query = strings.ToLower(query)
	if _, ok := g.session.Game.CharacterByID(query); ok {
		return query, true
	}
	if id, ok := g.names[query]; ok {
		return id, true
	}
	id, ok := g.names[g.matcher.Closest(query)]
	return id, ok
}

func (g *game) accuse() (bool, error) {
	next, verdict, err := g.session.Accuse()
	if err != nil {
		return false, errors.Wrap(err, "accuse")
	}
	g.session = next
	g.printf("\nYou point your paw at %s.\n%s\n", verdict.Accused.Name, verdict.Message)
	return true, nil
}

func (g *game) printSuspects() {
	for i, c := range g.session.Game.Characters {
		marker := ""
		if c.ID == g.session.InterlocutorID {
			marker = "  <- talking"
		}
		g.printf("%d. %s, %s (%s)%s\n", i+1, c.Name, c.Role, c.Personality, marker)
	}
}

func (g *game) printClues() {
	for _, c := range g.session.Game.Clues {
		g.printf("- %s: %s\n", c.Name, c.Description)
	}
}

// printTranscript prints the messages from index from onwards. The player's own messages are not echoed.
func (g *game) printTranscript(from int) {
	for _, m := range g.session.Transcript[from:] {
		switch m.Role {
		case models.RoleUser:
		case models.RoleAssistant:
			g.printf("%s: %s\n", m.Speaker, m.Content)
		case models.RoleSystem:
			g.printf("%s\n", m.Content)
		}
	}
}

func (g *game) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out, format, args...)
}

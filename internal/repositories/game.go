package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/teddytown/internal/errors"
	"github.com/myrjola/teddytown/internal/random"
	"github.com/myrjola/teddytown/internal/session"
	"github.com/myrjola/teddytown/internal/sqlite"
)

var ErrGameNotFound = errors.NewSentinel("game not found")

const gameIDLength = 24

// GameRepository stores hosted game sessions as JSON rows.
type GameRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewGameRepository(db *sqlite.Database, logger *slog.Logger) *GameRepository {
	return &GameRepository{
		db:     db,
		logger: logger.With("source", "GameRepository"),
	}
}

// Create stores s under a new random id.
func (r *GameRepository) Create(ctx context.Context, s session.Session) (string, error) {
	id, err := random.Letters(gameIDLength)
	if err != nil {
		return "", errors.Wrap(err, "generate game id")
	}
	state, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "marshal session")
	}
	stmt := `INSERT INTO games (id, state) VALUES (?, ?)`
	if _, err = r.db.ReadWrite.ExecContext(ctx, stmt, id, string(state)); err != nil {
		return "", errors.Wrap(err, "insert game")
	}
	return id, nil
}

// Get returns the session stored under id.
func (r *GameRepository) Get(ctx context.Context, id string) (session.Session, error) {
	var state string
	stmt := `SELECT state FROM games WHERE id = ?`
	if err := r.db.ReadOnly.GetContext(ctx, &state, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, errors.Wrap(ErrGameNotFound, "read game", slog.String("id", id))
		}
		return session.Session{}, errors.Wrap(err, "read game", slog.String("id", id))
	}
	return decodeSession(state)
}

// Update applies fn to the stored session inside a write transaction. Nothing is stored if fn fails.
func (r *GameRepository) Update(
	ctx context.Context,
	id string,
	fn func(session.Session) (session.Session, error),
) (session.Session, error) {
	var (
		tx    *sqlx.Tx
		err   error
		state string
	)
	if tx, err = r.db.ReadWrite.BeginTxx(ctx, nil); err != nil {
		return session.Session{}, errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			rollbackErr = errors.Wrap(rollbackErr, "rollback")
			r.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", errors.SlogError(rollbackErr))
		}
	}()

	if err = tx.GetContext(ctx, &state, `SELECT state FROM games WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, errors.Wrap(ErrGameNotFound, "read game", slog.String("id", id))
		}
		return session.Session{}, errors.Wrap(err, "read game", slog.String("id", id))
	}
	current, err := decodeSession(state)
	if err != nil {
		return session.Session{}, err
	}
	next, err := fn(current)
	if err != nil {
		return session.Session{}, err
	}
	b, err := json.Marshal(next)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "marshal session")
	}
	stmt := `UPDATE games SET state = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ') WHERE id = ?`
	if _, err = tx.ExecContext(ctx, stmt, string(b), id); err != nil {
		return session.Session{}, errors.Wrap(err, "update game", slog.String("id", id))
	}
	if err = tx.Commit(); err != nil {
		return session.Session{}, errors.Wrap(err, "commit transaction")
	}
	return next, nil
}

// Delete removes the game. Deleting a missing game is not an error.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete game", slog.String("id", id))
	}
	return nil
}

func decodeSession(state string) (session.Session, error) {
	var s session.Session
	if err := json.Unmarshal([]byte(state), &s); err != nil {
		return session.Session{}, errors.Wrap(err, "unmarshal session")
	}
	return s, nil
}

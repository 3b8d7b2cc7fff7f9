package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          TEXT PRIMARY KEY,
	player_name TEXT NOT NULL,
	bot         TEXT NOT NULL DEFAULT '',
	seed        INTEGER NOT NULL,
	state       TEXT NOT NULL,
	width       INTEGER NOT NULL,
	height      INTEGER NOT NULL,
	board       TEXT NOT NULL,
	score       INTEGER NOT NULL,
	lines       INTEGER NOT NULL,
	level       INTEGER NOT NULL,
	pieces      INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	ended_at    TEXT
);

CREATE TABLE IF NOT EXISTS scores (
	game_id      TEXT PRIMARY KEY,
	player_name  TEXT NOT NULL,
	score        INTEGER NOT NULL,
	lines        INTEGER NOT NULL,
	level        INTEGER NOT NULL,
	completed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS scores_rank ON scores (score DESC, lines DESC, completed_at ASC);
`

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Open opens (creating if missing) the database at path and applies the schema
func Open(path string) (*Storage, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	var ended sql.NullString
	if game.EndedAt != nil {
		ended = sql.NullString{String: formatTime(*game.EndedAt), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, player_name, bot, seed, state, width, height, board,
			score, lines, level, pieces, created_at, updated_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			player_name = excluded.player_name,
			bot         = excluded.bot,
			seed        = excluded.seed,
			state       = excluded.state,
			width       = excluded.width,
			height      = excluded.height,
			board       = excluded.board,
			score       = excluded.score,
			lines       = excluded.lines,
			level       = excluded.level,
			pieces      = excluded.pieces,
			updated_at  = excluded.updated_at,
			ended_at    = excluded.ended_at`,
		string(game.ID), game.PlayerName, game.Bot, int64(game.Seed), string(game.State),
		game.Width, game.Height, strings.Join(game.Board, "\n"),
		game.Score, game.Lines, game.Level, game.Pieces,
		formatTime(game.CreatedAt), formatTime(game.UpdatedAt), ended,
	)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var (
		game             model.Game
		seed             int64
		state, board     string
		created, updated string
		ended            sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, player_name, bot, seed, state, width, height, board,
			score, lines, level, pieces, created_at, updated_at, ended_at
		FROM games WHERE id = ?`, string(id),
	).Scan(&game.ID, &game.PlayerName, &game.Bot, &seed, &state, &game.Width, &game.Height, &board,
		&game.Score, &game.Lines, &game.Level, &game.Pieces, &created, &updated, &ended)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	game.Seed = uint64(seed)
	game.State = model.GameState(state)
	if board != "" {
		game.Board = strings.Split(board, "\n")
	}
	if game.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if game.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if ended.Valid {
		t, err := parseTime(ended.String)
		if err != nil {
			return nil, err
		}
		game.EndedAt = &t
	}
	return &game, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, string(id))
	return err
}

// Leaderboard operations

func (s *Storage) SaveScore(ctx context.Context, entry *model.ScoreEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scores (game_id, player_name, score, lines, level, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.GameID), entry.PlayerName, entry.Score, entry.Lines, entry.Level,
		formatTime(entry.CompletedAt),
	)
	return err
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, player_name, score, lines, level, completed_at
		FROM scores
		ORDER BY score DESC, lines DESC, completed_at ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*model.ScoreEntry{}
	for rows.Next() {
		var (
			entry     model.ScoreEntry
			completed string
		)
		if err := rows.Scan(&entry.GameID, &entry.PlayerName, &entry.Score, &entry.Lines, &entry.Level, &completed); err != nil {
			return nil, err
		}
		if entry.CompletedAt, err = parseTime(completed); err != nil {
			return nil, err
		}
		result = append(result, &entry)
	}
	return result, rows.Err()
}

// Times are stored as fixed-width UTC text so that lexical order matches time order
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

package response

import (
	"time"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/auth"
	"github.com/mcoot/blockfall/internal/services/game"
)

// Game represents a game record in API responses
type Game struct {
	ID         string     `json:"id"`
	PlayerName string     `json:"player_name"`
	Bot        string     `json:"bot,omitempty"`
	Seed       uint64     `json:"seed"`
	State      string     `json:"state"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Board      []string   `json:"board"`
	Score      int        `json:"score"`
	Lines      int        `json:"lines"`
	Level      int        `json:"level"`
	Pieces     int        `json:"pieces"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	return Game{
		ID:         string(g.ID),
		PlayerName: g.PlayerName,
		Bot:        g.Bot,
		Seed:       g.Seed,
		State:      string(g.State),
		Width:      g.Width,
		Height:     g.Height,
		Board:      g.Board,
		Score:      g.Score,
		Lines:      g.Lines,
		Level:      g.Level,
		Pieces:     g.Pieces,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
		EndedAt:    g.EndedAt,
	}
}

// Shape represents a positioned shape. Mask rows use display glyphs.
type Shape struct {
	Row  int      `json:"row"`
	Col  int      `json:"col"`
	Mask []string `json:"mask"`
}

// ShapeFromModel converts a shape view, nil stays nil
func ShapeFromModel(v *model.ShapeView) *Shape {
	if v == nil {
		return nil
	}
	return &Shape{Row: v.Row, Col: v.Col, Mask: model.EncodeRows(v.Mask)}
}

// State represents the live state of a running game
type State struct {
	Board  []string `json:"board"`
	Active *Shape   `json:"active"`
	Next   *Shape   `json:"next"`
	Score  int      `json:"score"`
	Lines  int      `json:"lines"`
	Level  int      `json:"level"`
	Pieces int      `json:"pieces"`
	State  string   `json:"state"`
}

// StateFromSnapshot converts a model.Snapshot
func StateFromSnapshot(s model.Snapshot) State {
	return State{
		Board:  model.EncodeRows(s.Board),
		Active: ShapeFromModel(s.Active),
		Next:   ShapeFromModel(s.Next),
		Score:  s.Score,
		Lines:  s.Lines,
		Level:  s.Level,
		Pieces: s.Pieces,
		State:  string(s.State),
	}
}

// GameResponse is the response for fetching a game. Live is only set while
// the game is running.
type GameResponse struct {
	Game Game   `json:"game"`
	Live *State `json:"live,omitempty"`
}

// CreateGameResponse is the response after starting a game
type CreateGameResponse struct {
	Game      Game      `json:"game"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Live      State     `json:"live"`
}

// CreateGameResponseFrom builds the response for a new game
func CreateGameResponseFrom(g *model.Game, token *auth.GameToken, snap model.Snapshot) CreateGameResponse {
	return CreateGameResponse{
		Game:      GameFromModel(g),
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Live:      StateFromSnapshot(snap),
	}
}

// Outcome represents the effect of one command
type Outcome struct {
	Command  model.Command `json:"command"`
	Moved    bool          `json:"moved"`
	Locked   bool          `json:"locked"`
	Cleared  int           `json:"cleared"`
	Points   int           `json:"points"`
	GameOver bool          `json:"game_over"`
}

// OutcomeFromModel converts a game.Outcome
func OutcomeFromModel(o game.Outcome) Outcome {
	return Outcome{
		Command:  o.Command,
		Moved:    o.Moved,
		Locked:   o.Locked,
		Cleared:  o.Cleared,
		Points:   o.Points,
		GameOver: o.GameOver,
	}
}

// CommandResponse is the response after applying a command
type CommandResponse struct {
	Outcome Outcome `json:"outcome"`
	State   State   `json:"state"`
}

// ScoreEntry is one ranked leaderboard line
type ScoreEntry struct {
	Rank        int       `json:"rank"`
	GameID      string    `json:"game_id"`
	PlayerName  string    `json:"player_name"`
	Score       int       `json:"score"`
	Lines       int       `json:"lines"`
	Level       int       `json:"level"`
	CompletedAt time.Time `json:"completed_at"`
}

// Scores is the leaderboard response
type Scores struct {
	Scores []ScoreEntry `json:"scores"`
}

// ScoresFromModel ranks entries in the order given, starting at 1
func ScoresFromModel(entries []*model.ScoreEntry) Scores {
	scores := make([]ScoreEntry, len(entries))
	for i, e := range entries {
		scores[i] = ScoreEntry{
			Rank:        i + 1,
			GameID:      string(e.GameID),
			PlayerName:  e.PlayerName,
			Score:       e.Score,
			Lines:       e.Lines,
			Level:       e.Level,
			CompletedAt: e.CompletedAt,
		}
	}
	return Scores{Scores: scores}
}

// Event is a game event pushed over SSE and websockets
type Event struct {
	Type      string    `json:"type"`
	GameID    string    `json:"game_id"`
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
	Cleared   int       `json:"cleared,omitempty"`
	Points    int       `json:"points,omitempty"`
}

// EventFromModel converts a model.Event
func EventFromModel(ev model.Event) Event {
	out := Event{
		Type:      string(ev.Type),
		GameID:    string(ev.GameID),
		Timestamp: ev.Timestamp,
		State:     StateFromSnapshot(ev.Snapshot),
	}
	if p, ok := ev.Payload.(model.LinesClearedPayload); ok {
		out.Cleared = p.Lines
		out.Points = p.Points
	}
	return out
}

// Health is the response of the health check
type Health struct {
	Status      string `json:"status"`
	ActiveGames int    `json:"active_games"`
}

// Strategies lists the bot strategies a game can be started with
type Strategies struct {
	Strategies []string `json:"strategies"`
}

// View converts the shape back into a model view
func (s *Shape) View() (*model.ShapeView, error) {
	if s == nil {
		return nil, nil
	}
	mask, err := model.DecodeRows(s.Mask)
	if err != nil {
		return nil, err
	}
	return &model.ShapeView{Mask: mask, Row: s.Row, Col: s.Col}, nil
}

// Snapshot converts the state back into a model snapshot, for clients that
// render games they receive over the wire
func (s State) Snapshot() (model.Snapshot, error) {
	board, err := model.DecodeRows(s.Board)
	if err != nil {
		return model.Snapshot{}, err
	}
	active, err := s.Active.View()
	if err != nil {
		return model.Snapshot{}, err
	}
	next, err := s.Next.View()
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{
		Board:  board,
		Active: active,
		Next:   next,
		Score:  s.Score,
		Lines:  s.Lines,
		Level:  s.Level,
		Pieces: s.Pieces,
		State:  model.GameState(s.State),
	}, nil
}

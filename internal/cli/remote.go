package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mcoot/blockfall/internal/api/apierr"
	"github.com/mcoot/blockfall/internal/api/request"
	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/terminal"
)

// wsMessage is either an event or an in-band error
type wsMessage struct {
	response.Event
	Error *apierr.APIError `json:"error,omitempty"`
}

// remoteGame plays a server game over its websocket
type remoteGame struct {
	conn *websocket.Conn
	ctx  context.Context

	once   sync.Once
	events chan model.Event
	ended  chan struct{}

	mu      sync.Mutex
	last    *model.Snapshot
	lastErr error
}

// dialGame opens the play socket of a game
func dialGame(ctx context.Context, baseURL, token, gameID string) (*remoteGame, error) {
	url := websocketURL(baseURL) + fmt.Sprintf("/api/v1/games/%s/ws", gameID)

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connection failed: HTTP %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	return &remoteGame{
		conn:   conn,
		ctx:    ctx,
		events: make(chan model.Event, 16),
		ended:  make(chan struct{}),
	}, nil
}

func websocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

// Subscribe starts reading the socket. The returned channel closes when
// the server ends the game or the connection drops.
func (g *remoteGame) Subscribe() (<-chan model.Event, func()) {
	g.once.Do(func() { go g.read() })
	return g.events, func() { _ = g.conn.Close(websocket.StatusNormalClosure, "bye") }
}

// Submit sends one command. Once the socket has closed it reports the game
// as over.
func (g *remoteGame) Submit(ctx context.Context, cmd model.Command) error {
	select {
	case <-g.ended:
		return model.ErrGameOver
	default:
	}

	if err := wsjson.Write(ctx, g.conn, request.CommandRequest{Command: cmd}); err != nil {
		select {
		case <-g.ended:
			return model.ErrGameOver
		default:
		}
		return err
	}
	return nil
}

// Last returns the most recent snapshot received
func (g *remoteGame) Last() (model.Snapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return model.Snapshot{}, false
	}
	return *g.last, true
}

// Err returns the first error that ended the stream abnormally
func (g *remoteGame) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

func (g *remoteGame) read() {
	defer close(g.ended)
	defer close(g.events)

	for {
		var msg wsMessage
		if err := wsjson.Read(g.ctx, g.conn, &msg); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && g.ctx.Err() == nil {
				g.fail(err)
			}
			return
		}

		if msg.Error != nil {
			g.fail(errors.New(describe(*msg.Error)))
			continue
		}

		snap, err := msg.State.Snapshot()
		if err != nil {
			g.fail(err)
			return
		}
		g.mu.Lock()
		g.last = &snap
		g.mu.Unlock()

		ev := model.Event{
			Type:      model.EventType(msg.Type),
			Timestamp: msg.Timestamp,
			GameID:    model.GameID(msg.GameID),
			Snapshot:  snap,
		}
		select {
		case g.events <- ev:
		case <-g.ctx.Done():
			return
		}
	}
}

func (g *remoteGame) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastErr == nil {
		g.lastErr = err
	}
}

var _ terminal.Game = (*remoteGame)(nil)

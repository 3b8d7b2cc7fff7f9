package sse

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "frame",
			data:      `{"score":40}`,
			expected:  "event: frame\ndata: {\"score\":40}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "frame",
			data:      "#  #\n####",
			expected:  "event: frame\ndata: #  #\ndata: ####\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single line", "hello", []string{"hello"}},
		{"two lines", "line1\nline2", []string{"line1", "line2"}},
		{"trailing newline", "line1\n", []string{"line1"}},
		{"empty string", "", []string{""}},
		{"crlf line endings", "line1\r\nline2\r\n", []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitLines(tt.input))
		})
	}
}

func TestEncodeEvent(t *testing.T) {
	msg, err := EncodeEvent(model.Event{
		Type:   model.EventLinesCleared,
		GameID: "GAME1",
		Snapshot: model.Snapshot{
			Board: [][]model.Tile{{model.TileWall, model.TileEmpty, model.TileWall}},
			Score: 100,
			State: model.GameStatePlaying,
		},
		Payload: model.LinesClearedPayload{Lines: 2, Points: 100},
	})
	require.NoError(t, err)

	s := string(msg)
	assert.True(t, strings.HasPrefix(s, "event: lines_cleared\ndata: {"), s)
	assert.Contains(t, s, `"game_id":"GAME1"`)
	assert.Contains(t, s, `"board":["# #"]`)
	assert.Contains(t, s, `"cleared":2`)
	assert.Contains(t, s, `"points":100`)
	assert.True(t, strings.HasSuffix(s, "}\n\n"))
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("GAME1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient()
	require.True(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(formatSSEMessage("frame", "data"))

	select {
	case msg := <-client.send:
		assert.Equal(t, "event: frame\ndata: data\n\n", string(msg))
	case <-time.After(time.Second):
		t.Error("client did not receive message")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("GAME1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient()
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	assert.False(t, ok, "send channel should be closed")
}

func TestHub_CloseDeliversPendingMessages(t *testing.T) {
	hub := NewHub("GAME1", testutil.NopLogger())
	client := NewClient()

	go hub.Run()
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(formatSSEMessage("game_over", "{}"))
	hub.Close()

	var got []string
	for msg := range client.send {
		got = append(got, string(msg))
	}
	assert.Equal(t, []string{"event: game_over\ndata: {}\n\n"}, got)
}

func TestHub_RegisterAfterCloseFails(t *testing.T) {
	hub := NewHub("GAME1", testutil.NopLogger())
	go hub.Run()
	hub.Close()

	assert.False(t, hub.Register(NewClient()))
}

type fakeSource struct {
	mu      sync.Mutex
	games   map[model.GameID]bool
	streams map[model.GameID]chan model.Event
	calls   int
}

func newFakeSource(ids ...model.GameID) *fakeSource {
	f := &fakeSource{games: map[model.GameID]bool{}, streams: map[model.GameID]chan model.Event{}}
	for _, id := range ids {
		f.games[id] = true
	}
	return f
}

// Subscribe mimics a session: the stream opens with a frame of the current state
func (f *fakeSource) Subscribe(_ context.Context, gameID model.GameID) (<-chan model.Event, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.games[gameID] {
		return nil, nil, model.ErrGameNotFound
	}
	f.calls++
	ch := make(chan model.Event, 8)
	ch <- model.Event{Type: model.EventFrame, GameID: gameID}
	f.streams[gameID] = ch
	return ch, func() {}, nil
}

func (f *fakeSource) stream(gameID model.GameID) chan model.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[gameID]
}
func TestHubManager_GetOrCreateHub(t *testing.T) {
	source := newFakeSource("GAME1")
	manager := NewHubManager(source, testutil.NopLogger())
	defer manager.Close()

	hub1, err := manager.GetOrCreateHub(context.Background(), "GAME1")
	require.NoError(t, err)
	hub2, err := manager.GetOrCreateHub(context.Background(), "GAME1")
	require.NoError(t, err)

	assert.Same(t, hub1, hub2)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 1, manager.HubCount())

	_, err = manager.GetOrCreateHub(context.Background(), "MISSING")
	assert.ErrorIs(t, err, model.ErrGameNotFound)
	assert.Equal(t, 1, manager.HubCount())
}

func TestHubManager_CloseStopsHubs(t *testing.T) {
	source := newFakeSource("GAME1")
	manager := NewHubManager(source, testutil.NopLogger())

	hub, err := manager.GetOrCreateHub(context.Background(), "GAME1")
	require.NoError(t, err)

	manager.Close()
	assert.Equal(t, 0, manager.HubCount())

	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Error("hub was not closed")
	}
}

func TestServeSSE_StreamsUntilGameEnds(t *testing.T) {
	source := newFakeSource("GAME1")
	manager := NewHubManager(source, testutil.NopLogger())

	hub, err := manager.GetOrCreateHub(context.Background(), "GAME1")
	require.NoError(t, err)
	events := source.stream("GAME1")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/games/GAME1/events", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ServeSSE(rec, req, hub, []byte("event: frame\ndata: {}\n\n"))
	}()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	events <- model.Event{Type: model.EventPieceLocked, GameID: "GAME1"}
	events <- model.Event{Type: model.EventGameOver, GameID: "GAME1"}
	close(events)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeSSE did not return after the game ended")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	connected := strings.Index(body, "event: connected")
	initial := strings.Index(body, "event: frame")
	locked := strings.Index(body, "event: piece_locked")
	over := strings.Index(body, "event: game_over")
	assert.True(t, connected < initial && initial < locked && locked < over, body)
	assert.Eventually(t, func() bool { return manager.HubCount() == 0 }, time.Second, 5*time.Millisecond)
}

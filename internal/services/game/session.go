package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/scoring"
)

const (
	requestBuffer    = 64
	subscriberBuffer = 32
)

// Hooks are called from the session goroutine
type Hooks struct {
	// OnLock receives the snapshot after each piece locks, unless the lock ended the game
	OnLock func(model.Snapshot)
	// OnFinish receives the final snapshot once the game is over or abandoned
	OnFinish func(model.Snapshot)
}

type request struct {
	cmd   model.Command
	reply chan result // nil when the sender does not wait
}

type result struct {
	outcome Outcome
	err     error
}

// Session runs one Engine on a single goroutine. Gravity ticks and player
// input are both queued as commands, so the engine and every published
// snapshot only ever see whole commands.
type Session struct {
	id      model.GameID
	engine  *Engine
	clock   clock.Clock
	scoring *scoring.Service
	logger  *slog.Logger
	hooks   Hooks

	requests chan request
	stopping chan struct{}
	done     chan struct{}
	started  atomic.Bool

	// reqMu guards stopped; senders hold it shared while queueing
	reqMu   sync.RWMutex
	stopped bool

	mu          sync.RWMutex
	snapshot    model.Snapshot
	subscribers map[int]chan model.Event
	nextSub     int
	closed      bool
}

// NewSession wraps an engine. Call Run to start it.
func NewSession(id model.GameID, engine *Engine, clock clock.Clock, scoring *scoring.Service, logger *slog.Logger, hooks Hooks) *Session {
	return &Session{
		id:          id,
		engine:      engine,
		clock:       clock,
		scoring:     scoring,
		logger:      logger.With(slog.String("game_id", string(id))),
		hooks:       hooks,
		requests:    make(chan request, requestBuffer),
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
		snapshot:    engine.Snapshot(),
		subscribers: make(map[int]chan model.Event),
	}
}

// ID returns the game this session runs
func (s *Session) ID() model.GameID {
	return s.id
}

// Done is closed once Run has returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Snapshot returns the state after the most recently applied command
func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Submit queues a command without waiting for it to be applied
func (s *Session) Submit(ctx context.Context, cmd model.Command) error {
	return s.enqueue(ctx, request{cmd: cmd})
}

// Send queues a command and waits for its outcome
func (s *Session) Send(ctx context.Context, cmd model.Command) (Outcome, error) {
	reply := make(chan result, 1)
	if err := s.enqueue(ctx, request{cmd: cmd, reply: reply}); err != nil {
		return Outcome{}, err
	}

	select {
	case r := <-reply:
		return r.outcome, r.err
	case <-s.done:
		select {
		case r := <-reply:
			return r.outcome, r.err
		default:
			return Outcome{}, s.finishedErr()
		}
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Subscribe returns a channel of events, starting with a frame of the
// current state, and a function to stop receiving. Slow subscribers miss
// events rather than block the game. The channel is closed when the
// session ends.
func (s *Session) Subscribe() (<-chan model.Event, func()) {
	ch := make(chan model.Event, subscriberBuffer)

	s.mu.Lock()
	defer s.mu.Unlock()

	ch <- s.event(model.EventFrame, s.snapshot, nil)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}

// Run owns the engine until the game ends or ctx is cancelled.
// Cancelling ctx abandons the game.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session %s already started", s.id)
	}
	defer s.close()

	level := s.engine.Level()
	ticker := s.clock.NewTicker(s.scoring.TickInterval(level))
	defer ticker.Stop()

	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.tick(tickCtx, ticker)

	s.logger.Info("session started")

	if s.engine.State().IsFinished() {
		s.finish()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			s.engine.Abandon()
			s.finish()
			return nil

		case req := <-s.requests:
			out, err := s.engine.Apply(req.cmd)
			if req.reply != nil {
				req.reply <- result{outcome: out, err: err}
			}
			if err != nil {
				s.logger.Debug("command rejected",
					slog.String("command", req.cmd.String()),
					slog.String("error", err.Error()),
				)
				continue
			}

			snap := s.engine.Snapshot()
			s.setSnapshot(snap)

			if out.Locked {
				s.publish(s.event(model.EventPieceLocked, snap, nil))
				if out.Cleared > 0 {
					s.publish(s.event(model.EventLinesCleared, snap, model.LinesClearedPayload{
						Lines:  out.Cleared,
						Points: out.Points,
					}))
					s.logger.Debug("lines cleared",
						slog.Int("lines", out.Cleared),
						slog.Int("points", out.Points),
					)
				}
				if l := s.engine.Level(); l != level {
					level = l
					ticker.Reset(s.scoring.TickInterval(level))
				}
				if !out.GameOver && s.hooks.OnLock != nil {
					s.hooks.OnLock(snap)
				}
			}
			s.publish(s.event(model.EventFrame, snap, nil))

			if out.GameOver {
				s.finish()
				return nil
			}
		}
	}
}

// tick feeds a Down command into the queue on every clock tick
func (s *Session) tick(ctx context.Context, ticker clock.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			select {
			case s.requests <- request{cmd: model.CommandDown}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Session) enqueue(ctx context.Context, req request) error {
	s.reqMu.RLock()
	defer s.reqMu.RUnlock()
	if s.stopped {
		return s.finishedErr()
	}

	select {
	case s.requests <- req:
		return nil
	case <-s.stopping:
		return s.finishedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop refuses further requests and rejects any still queued
func (s *Session) stop() {
	close(s.stopping)
	s.reqMu.Lock()
	s.stopped = true
	s.reqMu.Unlock()

	for {
		select {
		case req := <-s.requests:
			if req.reply != nil {
				req.reply <- result{err: s.finishedErr()}
			}
		default:
			return
		}
	}
}

func (s *Session) finish() {
	snap := s.engine.Snapshot()
	s.setSnapshot(snap)

	if snap.State == model.GameStateAbandoned {
		s.publish(s.event(model.EventGameAbandoned, snap, nil))
	} else {
		s.publish(s.event(model.EventGameOver, snap, model.GameOverPayload{
			Score: snap.Score,
			Lines: snap.Lines,
		}))
	}

	s.logger.Info("session finished",
		slog.String("state", string(snap.State)),
		slog.Int("score", snap.Score),
		slog.Int("lines", snap.Lines),
		slog.Int("pieces", snap.Pieces),
	)

	if s.hooks.OnFinish != nil {
		s.hooks.OnFinish(snap)
	}
}

func (s *Session) finishedErr() error {
	if s.Snapshot().State == model.GameStateAbandoned {
		return model.ErrGameAbandoned
	}
	return model.ErrGameOver
}

func (s *Session) setSnapshot(snap model.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

func (s *Session) event(t model.EventType, snap model.Snapshot, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: s.clock.Now(),
		GameID:    s.id,
		Snapshot:  snap,
		Payload:   payload,
	}
}

func (s *Session) publish(ev model.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) close() {
	s.stop()

	s.mu.Lock()
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
	s.mu.Unlock()
	close(s.done)
}

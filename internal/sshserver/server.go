// Package sshserver lets players start a game by opening an SSH shell.
package sshserver

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/render"
	"github.com/mcoot/blockfall/internal/services/game"
	"github.com/mcoot/blockfall/internal/terminal"
)

const (
	maxNameLength   = 32
	handshakeLimit  = 10 * time.Second
	abandonTimeout  = 5 * time.Second
	defaultUserName = "guest"
)

// Config holds SSH server settings
type Config struct {
	Addr        string
	HostKeyPath string // PEM private key; an ephemeral ed25519 key is generated when empty
}

// GameStarter is the part of the game controller the server uses
type GameStarter interface {
	CreateGame(ctx context.Context, opts game.CreateOptions) (*model.Game, *game.Session, error)
	AbandonGame(ctx context.Context, gameID model.GameID) error
}

// Server runs one game per SSH shell. Clients are not authenticated; the
// SSH user name becomes the player name.
type Server struct {
	cfg       Config
	games     GameStarter
	sshConfig *ssh.ServerConfig
	logger    *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// New creates a Server and loads or generates its host key
func New(cfg Config, games GameStarter, logger *slog.Logger) (*Server, error) {
	signer, err := hostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ServerConfig{
		NoClientAuth:  true,
		ServerVersion: "SSH-2.0-blockfall",
	}
	sshConfig.AddHostKey(signer)

	return &Server{
		cfg:       cfg,
		games:     games,
		sshConfig: sshConfig,
		logger:    logger.With(slog.String("component", "ssh")),
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown is called or ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("ssh listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("ssh server starting", slog.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.forget(conn)
			s.handleConn(ctx, conn)
		}()
	}
}

// Addr returns the listening address once Serve has been called
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections, closes open ones and waits for
// their games to be abandoned
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) forget(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(handshakeLimit))
	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.sshConfig)
	if err != nil {
		s.logger.Debug("ssh handshake failed",
			slog.String("remote", conn.RemoteAddr().String()),
			slog.String("error", err.Error()),
		)
		return
	}
	_ = conn.SetDeadline(time.Time{})
	defer sconn.Close()

	logger := s.logger.With(
		slog.String("remote", sconn.RemoteAddr().String()),
		slog.String("user", sconn.User()),
	)
	logger.Info("ssh client connected")

	go ssh.DiscardRequests(reqs)

	var wg sync.WaitGroup
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			_ = newCh.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			logger.Warn("failed to accept channel", slog.String("error", err.Error()))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleSession(ctx, playerName(sconn.User()), ch, requests, logger)
		}()
	}
	wg.Wait()

	logger.Info("ssh client disconnected")
}

// handleSession answers channel requests and starts a game once the client
// asks for a shell
func (s *Server) handleSession(ctx context.Context, player string, ch ssh.Channel, requests <-chan *ssh.Request, logger *slog.Logger) {
	defer ch.Close()

	shell := make(chan bool, 1)
	go func() {
		pty := false
		started := false
		for req := range requests {
			ok := false
			switch req.Type {
			case "pty-req":
				pty, ok = true, true
			case "window-change", "env":
				ok = true
			case "shell":
				if !started {
					started, ok = true, true
					shell <- pty
				}
			}
			if req.WantReply {
				_ = req.Reply(ok, nil)
			}
		}
		close(shell)
	}()

	pty, ok := <-shell
	if !ok {
		return
	}

	record, session, err := s.games.CreateGame(ctx, game.CreateOptions{PlayerName: player})
	if err != nil {
		logger.Error("failed to create game", slog.String("error", err.Error()))
		_, _ = fmt.Fprintf(ch, "could not start a game: %v\r\n", err)
		exitStatus(ch, 1)
		return
	}
	logger = logger.With(slog.String("game_id", string(record.ID)))
	logger.Info("ssh game started")

	err = terminal.Play(ctx, session, ch, ch, render.Options{Color: pty, ShowLevel: true})
	if err != nil {
		logger.Warn("ssh game stopped", slog.String("error", err.Error()))
	}

	if !session.Snapshot().State.IsFinished() {
		abandonCtx, cancel := context.WithTimeout(context.Background(), abandonTimeout)
		defer cancel()
		if err := s.games.AbandonGame(abandonCtx, record.ID); err != nil {
			logger.Warn("failed to abandon game", slog.String("error", err.Error()))
		}
	}

	exitStatus(ch, 0)
}

func exitStatus(ch ssh.Channel, status uint32) {
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
}

func playerName(user string) string {
	name := strings.TrimSpace(user)
	if name == "" {
		return defaultUserName
	}
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}
	return name
}

func hostKey(path string) (ssh.Signer, error) {
	if path == "" {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating host key: %w", err)
		}
		return ssh.NewSignerFromKey(priv)
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	if err != nil {
		return nil, fmt.Errorf("parsing host key: %w", err)
	}
	return signer, nil
}

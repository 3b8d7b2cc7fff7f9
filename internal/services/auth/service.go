package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/model"
)

const issuer = "blockfall"

// GameToken grants control of one game
type GameToken struct {
	Token     string
	GameID    model.GameID
	ExpiresAt time.Time
}

// Claims are the contents of a validated game token
type Claims struct {
	jwt.RegisteredClaims
	PlayerName string `json:"player_name"`
}

// GameID returns the game the token controls
func (c *Claims) GameID() model.GameID {
	return model.GameID(c.Subject)
}

// Config holds configuration for the auth service
type Config struct {
	Secret        []byte // Generated at startup when empty
	TokenDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenDuration: 24 * time.Hour,
	}
}

// Service issues and checks signed game tokens
type Service struct {
	clock         clock.Clock
	secret        []byte
	tokenDuration time.Duration
}

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = DefaultConfig().TokenDuration
	}
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &Service{
		clock:         clock,
		secret:        secret,
		tokenDuration: cfg.TokenDuration,
	}
}

// Issue signs a token for the given game
func (s *Service) Issue(gameID model.GameID, playerName string) (*GameToken, error) {
	if gameID == "" {
		return nil, fmt.Errorf("%w: game ID is required", model.ErrInvalidArgument)
	}

	now := s.clock.Now()
	expires := now.Add(s.tokenDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   string(gameID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		PlayerName: playerName,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &GameToken{
		Token:     signed,
		GameID:    gameID,
		ExpiresAt: expires,
	}, nil
}

// Validate checks that token is unexpired, correctly signed and grants
// control of gameID
func (s *Service) Validate(token string, gameID model.GameID) (*Claims, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.GameID() != gameID {
		return nil, fmt.Errorf("%w: token is for another game", model.ErrInvalidToken)
	}
	return claims, nil
}

// Parse checks a token without tying it to a game
func (s *Service) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", model.ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", model.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}

// Interface for dependency injection
type ServiceInterface interface {
	Issue(gameID model.GameID, playerName string) (*GameToken, error)
	Validate(token string, gameID model.GameID) (*Claims, error)
	Parse(token string) (*Claims, error)
}

var _ ServiceInterface = (*Service)(nil)

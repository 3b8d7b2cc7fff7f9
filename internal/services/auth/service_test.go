package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockfall/internal/dependencies/mocks"
	"github.com/mcoot/blockfall/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, Config{Secret: []byte("test-secret"), TokenDuration: time.Hour})
}

// Issue tests

func (s *ServiceSuite) TestIssueSucceeds() {
	token, err := s.service.Issue("GAME1", "Alice")
	s.Require().NoError(err)

	s.NotEmpty(token.Token)
	s.Equal(model.GameID("GAME1"), token.GameID)
	s.Equal(s.clock.Now().Add(time.Hour), token.ExpiresAt)
}

func (s *ServiceSuite) TestIssueRequiresGameID() {
	_, err := s.service.Issue("", "Alice")
	s.ErrorIs(err, model.ErrInvalidArgument)
}

// Validate tests

func (s *ServiceSuite) TestValidateReturnsClaims() {
	token, _ := s.service.Issue("GAME1", "Alice")

	claims, err := s.service.Validate(token.Token, "GAME1")
	s.Require().NoError(err)
	s.Equal(model.GameID("GAME1"), claims.GameID())
	s.Equal("Alice", claims.PlayerName)
}

func (s *ServiceSuite) TestValidateRejectsOtherGame() {
	token, _ := s.service.Issue("GAME1", "Alice")

	_, err := s.service.Validate(token.Token, "GAME2")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateRejectsExpiredToken() {
	token, _ := s.service.Issue("GAME1", "Alice")

	s.clock.Advance(59 * time.Minute)
	_, err := s.service.Validate(token.Token, "GAME1")
	s.NoError(err)

	s.clock.Advance(2 * time.Minute)
	_, err = s.service.Validate(token.Token, "GAME1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateRejectsTamperedToken() {
	token, _ := s.service.Issue("GAME1", "Alice")
	parts := strings.Split(token.Token, ".")
	s.Require().Len(parts, 3)

	other, _ := s.service.Issue("GAME2", "Mallory")
	otherParts := strings.Split(other.Token, ".")

	forged := parts[0] + "." + otherParts[1] + "." + parts[2]
	_, err := s.service.Validate(forged, "GAME2")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateRejectsOtherSecret() {
	other := New(s.clock, Config{Secret: []byte("another-secret")})
	token, _ := other.Issue("GAME1", "Alice")

	_, err := s.service.Validate(token.Token, "GAME1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestValidateRejectsGarbage() {
	_, err := s.service.Validate("", "GAME1")
	s.ErrorIs(err, model.ErrInvalidToken)

	_, err = s.service.Validate("not-a-token", "GAME1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

func (s *ServiceSuite) TestGeneratedSecretsDiffer() {
	a := New(s.clock, DefaultConfig())
	b := New(s.clock, DefaultConfig())

	token, err := a.Issue("GAME1", "Alice")
	s.Require().NoError(err)

	_, err = a.Validate(token.Token, "GAME1")
	s.NoError(err)
	_, err = b.Validate(token.Token, "GAME1")
	s.ErrorIs(err, model.ErrInvalidToken)
}

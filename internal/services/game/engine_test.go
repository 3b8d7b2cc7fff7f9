package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockfall/internal/dependencies/mocks"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/scoring"
	"github.com/mcoot/blockfall/internal/services/shapes"
)

type EngineSuite struct {
	suite.Suite
	random *mocks.MockRandom
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// SetupTest builds an engine whose factory only ever yields the vertical I piece
func (s *EngineSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
	engine, err := NewEngine(DefaultWidth, DefaultHeight, shapes.New(s.random), scoring.New(time.Second))
	s.Require().NoError(err)
	s.engine = engine
}

func (s *EngineSuite) apply(cmd model.Command) Outcome {
	out, err := s.engine.Apply(cmd)
	s.Require().NoError(err)
	return out
}

func (s *EngineSuite) dropToLock() Outcome {
	for i := 0; i < DefaultHeight+1; i++ {
		out := s.apply(model.CommandDown)
		if out.Locked {
			return out
		}
	}
	s.FailNow("piece never locked")
	return Outcome{}
}

// dropIntoColumn steers the I piece so its blocks land in the given grid column
func (s *EngineSuite) dropIntoColumn(col int) Outcome {
	delta := col - 1 - DefaultWidth/2
	for ; delta < 0; delta++ {
		s.True(s.apply(model.CommandLeft).Moved)
	}
	for ; delta > 0; delta-- {
		s.True(s.apply(model.CommandRight).Moved)
	}
	return s.dropToLock()
}

func (s *EngineSuite) TestNewEngineSpawnsAtTopCentre() {
	snap := s.engine.Snapshot()

	s.Equal(model.GameStatePlaying, snap.State)
	s.Require().NotNil(snap.Active)
	s.Require().NotNil(snap.Next)
	s.Equal(0, snap.Active.Row)
	s.Equal(DefaultWidth/2, snap.Active.Col)
	s.Equal(1, snap.Level)
	s.Equal(0, snap.Score)
	s.Len(snap.Board, DefaultHeight)
}

func (s *EngineSuite) TestNewEngineRejectsInvalidBoard() {
	_, err := NewEngine(0, 10, shapes.New(s.random), scoring.New(time.Second))
	s.ErrorIs(err, model.ErrInvalidArgument)
}

func (s *EngineSuite) TestMoveLeftAndRight() {
	out := s.apply(model.CommandLeft)
	s.True(out.Moved)
	s.Equal(DefaultWidth/2-1, s.engine.Snapshot().Active.Col)

	out = s.apply(model.CommandRight)
	s.True(out.Moved)
	s.Equal(DefaultWidth/2, s.engine.Snapshot().Active.Col)
}

func (s *EngineSuite) TestMoveIntoWallIsRolledBack() {
	for i := 0; i < DefaultWidth/2; i++ {
		s.True(s.apply(model.CommandLeft).Moved)
	}

	out := s.apply(model.CommandLeft)
	s.False(out.Moved)
	s.False(out.Locked)
	s.Equal(0, s.engine.Snapshot().Active.Col)
}

func (s *EngineSuite) TestRotateIntoWallIsRolledBack() {
	for i := 0; i < DefaultWidth/2; i++ {
		s.apply(model.CommandLeft)
	}
	before := s.engine.Snapshot().Active.Mask

	out := s.apply(model.CommandRotate)
	s.False(out.Moved)
	s.Equal(before, s.engine.Snapshot().Active.Mask)
}

func (s *EngineSuite) TestRotateInOpenSpace() {
	out := s.apply(model.CommandRotate)
	s.True(out.Moved)
	s.Len(s.engine.Snapshot().Active.Mask, 2)
}

func (s *EngineSuite) TestBlockedDownLocksPiece() {
	moves := 0
	var out Outcome
	for {
		out = s.apply(model.CommandDown)
		if out.Locked {
			break
		}
		s.True(out.Moved)
		moves++
	}

	s.Equal(DefaultHeight-5, moves)
	s.False(out.Moved)
	s.Equal(0, out.Cleared)

	snap := s.engine.Snapshot()
	s.Equal(1, snap.Pieces)
	s.Equal(0, snap.Active.Row)
	for row := DefaultHeight - 5; row < DefaultHeight-1; row++ {
		s.Equal(model.TileBlue, snap.Board[row][DefaultWidth/2+1], "row %d", row)
	}
}

func (s *EngineSuite) TestFourLinesScoreTetris() {
	var out Outcome
	for col := 1; col <= DefaultWidth-2; col++ {
		out = s.dropIntoColumn(col)
		if col < DefaultWidth-2 {
			s.Equal(0, out.Cleared)
		}
	}

	s.Equal(4, out.Cleared)
	s.Equal(1200, out.Points)
	s.False(out.GameOver)

	snap := s.engine.Snapshot()
	s.Equal(1200, snap.Score)
	s.Equal(4, snap.Lines)
	s.Equal(8, snap.Pieces)

	board, err := model.NewBoardFromTiles(snap.Board)
	s.Require().NoError(err)
	s.Equal(0, board.BlockCount())
}

func (s *EngineSuite) TestStackReachingSpawnEndsGame() {
	var out Outcome
	for i := 0; i < 5; i++ {
		s.False(out.GameOver)
		out = s.dropToLock()
	}

	s.True(out.GameOver)
	s.Equal(model.GameStateOver, s.engine.State())

	_, err := s.engine.Apply(model.CommandLeft)
	s.ErrorIs(err, model.ErrGameOver)
}

func (s *EngineSuite) TestFinishEndsGame() {
	out := s.apply(model.CommandFinish)
	s.True(out.GameOver)
	s.False(out.Moved)
	s.Equal(model.GameStateOver, s.engine.Snapshot().State)
}

func (s *EngineSuite) TestUnknownCommand() {
	_, err := s.engine.Apply(model.Command(42))
	s.ErrorIs(err, model.ErrUnknownCommand)
	s.Equal(model.GameStatePlaying, s.engine.State())
}

func (s *EngineSuite) TestAbandon() {
	s.engine.Abandon()
	s.Equal(model.GameStateAbandoned, s.engine.State())

	_, err := s.engine.Apply(model.CommandDown)
	s.ErrorIs(err, model.ErrGameAbandoned)
}

func (s *EngineSuite) TestAbandonAfterGameOverKeepsOver() {
	s.apply(model.CommandFinish)
	s.engine.Abandon()
	s.Equal(model.GameStateOver, s.engine.State())
}

func (s *EngineSuite) TestSpawnBlockedOnTinyBoard() {
	engine, err := NewEngine(3, 3, shapes.New(s.random), scoring.New(time.Second))
	s.Require().NoError(err)
	s.Equal(model.GameStateOver, engine.State())
}

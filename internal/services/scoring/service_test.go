package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(time.Second)
}

func (s *ServiceSuite) TestPointsTable() {
	s.Equal(0, s.service.Points(0))
	s.Equal(40, s.service.Points(1))
	s.Equal(100, s.service.Points(2))
	s.Equal(300, s.service.Points(3))
	s.Equal(1200, s.service.Points(4))
}

func (s *ServiceSuite) TestPointsOutsideTableScoreNothing() {
	// Gravity can complete more than four rows in one lock
	s.Equal(0, s.service.Points(6))
	s.Equal(0, s.service.Points(-1))
}

func (s *ServiceSuite) TestLevel() {
	s.Equal(1, s.service.Level(0))
	s.Equal(1, s.service.Level(9))
	s.Equal(2, s.service.Level(10))
	s.Equal(4, s.service.Level(35))
}

func (s *ServiceSuite) TestTickIntervalShrinksPerLevel() {
	s.Equal(time.Second, s.service.TickInterval(1))
	s.Equal(900*time.Millisecond, s.service.TickInterval(2))
	s.Equal(810*time.Millisecond, s.service.TickInterval(3))
}

func (s *ServiceSuite) TestTickIntervalHasFloor() {
	s.Equal(100*time.Millisecond, s.service.TickInterval(100))
	s.Equal(100*time.Millisecond, New(50*time.Millisecond).TickInterval(1))
}

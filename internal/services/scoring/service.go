package scoring

import "time"

// points awarded for clearing 0..4 lines at once
var points = [...]int{0, 40, 100, 300, 1200}

const (
	linesPerLevel = 10
	minInterval   = 100 * time.Millisecond
)

// Service provides scoring and pacing rules
type Service struct {
	baseInterval time.Duration
}

// New creates a new ScoringService. baseInterval is the tick interval at level 1.
func New(baseInterval time.Duration) *Service {
	if baseInterval <= 0 {
		baseInterval = time.Second
	}
	return &Service{baseInterval: baseInterval}
}

// Points returns the score for clearing the given number of lines in one lock.
// Counts outside the table score nothing.
func (s *Service) Points(cleared int) int {
	if cleared < 0 || cleared >= len(points) {
		return 0
	}
	return points[cleared]
}

// Level returns the level reached after clearing the given total lines
func (s *Service) Level(lines int) int {
	if lines < 0 {
		lines = 0
	}
	return 1 + lines/linesPerLevel
}

// TickInterval returns the gravity interval for a level, shrinking by 10% per level
func (s *Service) TickInterval(level int) time.Duration {
	interval := s.baseInterval
	for l := 1; l < level; l++ {
		interval = interval * 9 / 10
		if interval <= minInterval {
			return minInterval
		}
	}
	return max(interval, minInterval)
}

// Interface for dependency injection
type ServiceInterface interface {
	Points(cleared int) int
	Level(lines int) int
	TickInterval(level int) time.Duration
}

var _ ServiceInterface = (*Service)(nil)

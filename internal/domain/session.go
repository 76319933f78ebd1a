package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one practiced instance of a pattern. It starts open and is
// finalized exactly once: completed when the practiced time covers at least
// half the target, incomplete otherwise. Both outcomes are terminal.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	PatternID string    `json:"patternId"`
	TargetSec int       `json:"targetSec"`
	ActualSec *int      `json:"actualSec"`
	Completed bool      `json:"completed"`
	StartedAt time.Time `json:"startedAt"`
	Timezone  string    `json:"timezone,omitempty"`
	LocalDate string    `json:"localDate,omitempty"`
}

func NewSession(id, userID, patternID string, targetSec int) *Session {
	if id == "" {
		id = uuid.New().String()
	}

	return &Session{
		ID:        id,
		UserID:    userID,
		PatternID: patternID,
		TargetSec: targetSec,
		StartedAt: time.Now().UTC(),
	}
}

// Finalized reports whether complete has already been called on the session,
// regardless of whether it counted.
func (s *Session) Finalized() bool {
	return s.ActualSec != nil
}

// MeetsCompletionRatio reports whether actual/target >= 0.5. Integer form so
// the boundary is exact.
func MeetsCompletionRatio(actualSec, targetSec int) bool {
	return 2*actualSec >= targetSec
}

// CompletionRatio returns actual/target for display purposes.
func CompletionRatio(actualSec, targetSec int) float64 {
	if targetSec == 0 {
		return 0
	}
	return float64(actualSec) / float64(targetSec)
}

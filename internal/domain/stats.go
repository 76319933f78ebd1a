package domain

import "time"

// UserStats is the per-user practice aggregate. One row per user, mutated
// only when a session completes.
type UserStats struct {
	UserID        string    `json:"-"`
	TotalSessions int       `json:"totalSessions"`
	TotalMinutes  float64   `json:"totalMinutes"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastPractice  string    `json:"lastPracticeDate,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ApplyCompletion folds one completed session into the stats. The streak
// rule has exactly three cases on (prior, today):
//
//	prior == today      same-day repeat, streak unchanged
//	prior == today - 1  consecutive day, streak + 1
//	anything else       streak restarts at 1 (covers new users and clock skew)
//
// LastPractice is overwritten in every case so same-day repeats stay
// idempotent. Total over its inputs; never fails.
func ApplyCompletion(stats UserStats, s *Session) UserStats {
	today := s.LocalDate

	switch {
	case stats.LastPractice == today:
		// streak unchanged
	case stats.LastPractice != "" && stats.LastPractice == previousDate(today):
		stats.CurrentStreak++
	default:
		stats.CurrentStreak = 1
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}

	stats.TotalSessions++
	if s.ActualSec != nil {
		stats.TotalMinutes += float64(*s.ActualSec) / 60
	}
	stats.LastPractice = today

	return stats
}

// previousDate returns the calendar day before date (YYYY-MM-DD), or ""
// when date does not parse.
func previousDate(date string) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(dateLayout)
}

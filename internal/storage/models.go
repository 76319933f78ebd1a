package storage

import (
	"database/sql"

	"github.com/nording/breathe/internal/domain"
)

// scanner is satisfied by both *sql.Row and *sql.Rows so the per-entity scan
// functions can serve single-row and multi-row queries alike.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func scanPattern(row scanner) (*domain.BreathingPattern, error) {
	var p domain.BreathingPattern
	var userID sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.InhaleSec,
		&p.InhaleHoldSec,
		&p.ExhaleSec,
		&p.ExhaleHoldSec,
		&p.Preset,
		&userID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.UserID = userID.String
	return &p, nil
}

func scanSession(row scanner) (*domain.Session, error) {
	var s domain.Session
	var actual sql.NullInt64
	var tz, localDate sql.NullString

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.PatternID,
		&s.TargetSec,
		&actual,
		&s.Completed,
		&s.StartedAt,
		&tz,
		&localDate,
	)
	if err != nil {
		return nil, err
	}

	if actual.Valid {
		v := int(actual.Int64)
		s.ActualSec = &v
	}
	s.Timezone = tz.String
	s.LocalDate = localDate.String
	return &s, nil
}

func scanStats(row scanner) (*domain.UserStats, error) {
	var st domain.UserStats
	var last sql.NullString

	err := row.Scan(
		&st.UserID,
		&st.TotalSessions,
		&st.TotalMinutes,
		&st.CurrentStreak,
		&st.LongestStreak,
		&last,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.LastPractice = last.String
	return &st, nil
}

func scanPreferences(row scanner) (*domain.Preferences, error) {
	var p domain.Preferences
	var patternID, reminder sql.NullString

	err := row.Scan(
		&p.UserID,
		&patternID,
		&p.AudioEnabled,
		&p.ReminderEnabled,
		&reminder,
		&p.Onboarded,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if patternID.Valid {
		v := patternID.String
		p.DefaultPatternID = &v
	}
	if reminder.Valid {
		v := reminder.String
		p.ReminderTime = &v
	}
	return &p, nil
}

func collectSessions(rows *sql.Rows) ([]domain.Session, error) {
	var sessions []domain.Session

	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

func collectPatterns(rows *sql.Rows) ([]domain.BreathingPattern, error) {
	var patterns []domain.BreathingPattern

	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}

	return patterns, rows.Err()
}

// nullIfEmpty maps "" to NULL for optional text columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

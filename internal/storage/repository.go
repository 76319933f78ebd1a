package storage

import "github.com/nording/breathe/internal/domain"

// UserStore persists accounts. CreateUser provisions the user's stats and
// preferences rows in the same transaction.
type UserStore interface {
	CreateUser(user *domain.User, prefs domain.Preferences) error
	UserByID(id string) (*domain.User, error)
	UserByEmail(email string) (*domain.User, error)
}

type PatternStore interface {
	CreatePattern(p *domain.BreathingPattern) error
	PatternByID(id string) (*domain.BreathingPattern, error)
	PatternsForUser(userID string) ([]domain.BreathingPattern, error)
	UpdatePattern(p *domain.BreathingPattern) error
	DeletePattern(id string) error

	// EnsurePresets inserts the built-in patterns, skipping slugs that
	// already exist. Safe to run on every startup.
	EnsurePresets(presets []domain.BreathingPattern) error
}

type SessionStore interface {
	CreateSession(s *domain.Session) error
	SessionByID(id string) (*domain.Session, error)
	SessionsByUser(userID string, limit int) ([]domain.Session, error)

	// FinalizeSession records the outcome carried on s (actual seconds,
	// completed flag, timezone, local date) for a still-open row, and when
	// the session completed, folds it into the user's stats in the same
	// transaction. Returns the updated stats, or nil for an incomplete
	// outcome. Returns domain.ErrAlreadyCompleted when the row was
	// finalized by the time the update ran.
	FinalizeSession(s *domain.Session) (*domain.UserStats, error)
}

type StatsStore interface {
	// StatsForUser returns the user's aggregate row, or a zero-valued
	// aggregate when none exists yet.
	StatsForUser(userID string) (*domain.UserStats, error)

	// CompletedDatesInRange returns the distinct local dates, from <= d <=
	// to, on which the user has at least one completed session.
	CompletedDatesInRange(userID, from, to string) ([]string, error)
}

type PreferenceStore interface {
	PreferencesForUser(userID string) (*domain.Preferences, error)
	UpdatePreferences(p *domain.Preferences) error
}

type Repository interface {
	UserStore
	PatternStore
	SessionStore
	StatsStore
	PreferenceStore

	Close() error
}

var (
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)

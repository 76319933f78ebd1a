// Package practice orchestrates breathing sessions: starting them, deciding
// completion, and folding completed sessions into per-user streak stats.
package practice

import (
	"fmt"
	"time"

	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type Config struct {
	// AllowedTargets are the selectable session lengths in seconds.
	AllowedTargets []int

	// FallbackZone, when non-empty, substitutes for a missing or unknown
	// client timezone at completion. Empty means such requests are
	// rejected with ErrInvalidInput.
	FallbackZone string
}

func DefaultConfig() Config {
	return Config{AllowedTargets: []int{120, 300, 600}}
}

type Service struct {
	repo storage.Repository
	cfg  Config

	// now is swapped in tests to pin calendar dates.
	now func() time.Time
}

func NewService(repo storage.Repository, cfg Config) *Service {
	if len(cfg.AllowedTargets) == 0 {
		cfg.AllowedTargets = DefaultConfig().AllowedTargets
	}

	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Start opens a session against a pattern the user may practice. The target
// must be one of the configured durations.
func (s *Service) Start(userID, patternID string, targetSec int) (*domain.Session, error) {
	if !s.allowedTarget(targetSec) {
		return nil, fmt.Errorf("%w: target must be one of %v seconds",
			domain.ErrInvalidInput, s.cfg.AllowedTargets)
	}

	pattern, err := s.repo.PatternByID(patternID)
	if err != nil {
		return nil, err
	}
	if !pattern.VisibleTo(userID) {
		return nil, domain.ErrNotFound
	}

	sess := domain.NewSession("", userID, patternID, targetSec)
	sess.StartedAt = s.now().UTC()

	if err := s.repo.CreateSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Complete finalizes an open session. The session counts as completed when
// actualSec covers at least half the target; the elapsed time is stored
// verbatim either way. The local calendar date is the session's UTC start
// instant seen from the client's timezone. When the session completes, the
// stats update commits in the same storage transaction; the returned stats
// are nil for an incomplete outcome.
func (s *Service) Complete(userID, sessionID string, actualSec int, clientTZ string) (*domain.Session, *domain.UserStats, error) {
	if actualSec < 0 {
		return nil, nil, fmt.Errorf("%w: actual seconds must be non-negative", domain.ErrInvalidInput)
	}

	sess, err := s.repo.SessionByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != userID {
		return nil, nil, domain.ErrNotFound
	}
	if sess.Finalized() {
		return nil, nil, domain.ErrAlreadyCompleted
	}

	loc, zone, err := s.resolveZone(clientTZ)
	if err != nil {
		return nil, nil, err
	}

	sess.ActualSec = &actualSec
	sess.Completed = domain.MeetsCompletionRatio(actualSec, sess.TargetSec)
	sess.Timezone = zone
	sess.LocalDate = domain.LocalDate(sess.StartedAt, loc)

	stats, err := s.repo.FinalizeSession(sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, stats, nil
}

func (s *Service) Get(userID, sessionID string) (*domain.Session, error) {
	sess, err := s.repo.SessionByID(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Service) History(userID string, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.repo.SessionsByUser(userID, limit)
}

func (s *Service) Stats(userID string) (*domain.UserStats, error) {
	return s.repo.StatsForUser(userID)
}

// WeeklyCalendar returns the seven day marks, Monday first, of the week
// containing refDate. An empty refDate means today in the client's zone.
func (s *Service) WeeklyCalendar(userID, clientTZ, refDate string) ([]domain.DayMark, error) {
	loc, _, err := s.resolveZone(clientTZ)
	if err != nil {
		return nil, err
	}

	if refDate == "" {
		refDate = domain.LocalDate(s.now(), loc)
	} else if _, err := domain.ParseDate(refDate); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
	}

	days, err := domain.WeekDates(refDate)
	if err != nil {
		return nil, err
	}

	dates, err := s.repo.CompletedDatesInRange(userID, days[0], days[6])
	if err != nil {
		return nil, err
	}

	practiced := make(map[string]bool, len(dates))
	for _, d := range dates {
		practiced[d] = true
	}
	return domain.MarkWeek(days, practiced), nil
}

func (s *Service) allowedTarget(targetSec int) bool {
	for _, t := range s.cfg.AllowedTargets {
		if targetSec == t {
			return true
		}
	}
	return false
}

// resolveZone maps the client's timezone name to a location, applying the
// configured fallback when the name is missing or unknown.
func (s *Service) resolveZone(clientTZ string) (*time.Location, string, error) {
	loc, err := domain.ResolveLocation(clientTZ)
	if err == nil {
		return loc, clientTZ, nil
	}

	if s.cfg.FallbackZone == "" {
		return nil, "", fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidInput, clientTZ)
	}

	loc, err = domain.ResolveLocation(s.cfg.FallbackZone)
	if err != nil {
		return nil, "", fmt.Errorf("fallback timezone %q: %w", s.cfg.FallbackZone, err)
	}
	return loc, s.cfg.FallbackZone, nil
}

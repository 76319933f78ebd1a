package practice

import (
	"errors"
	"fmt"

	"github.com/nording/breathe/internal/domain"
)

func (s *Service) Preferences(userID string) (*domain.Preferences, error) {
	return s.repo.PreferencesForUser(userID)
}

// UpdatePreferences replaces the user's settings. The default pattern, when
// set, must be one the user can practice; the reminder time must be a valid
// HH:MM clock string.
func (s *Service) UpdatePreferences(userID string, p domain.Preferences) (*domain.Preferences, error) {
	p.UserID = userID

	if p.ReminderTime != nil && !domain.ValidReminderTime(*p.ReminderTime) {
		return nil, fmt.Errorf("%w: reminder time must be HH:MM", domain.ErrInvalidInput)
	}

	if p.DefaultPatternID != nil {
		pattern, err := s.repo.PatternByID(*p.DefaultPatternID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: default pattern not found", domain.ErrInvalidInput)
			}
			return nil, err
		}
		if !pattern.VisibleTo(userID) {
			return nil, fmt.Errorf("%w: default pattern not found", domain.ErrInvalidInput)
		}
	}

	if err := s.repo.UpdatePreferences(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

package practice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nording/breathe/internal/domain"
)

// Patterns lists the presets plus the caller's own custom patterns.
func (s *Service) Patterns(userID string) ([]domain.BreathingPattern, error) {
	return s.repo.PatternsForUser(userID)
}

func (s *Service) Pattern(userID, id string) (*domain.BreathingPattern, error) {
	p, err := s.repo.PatternByID(id)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(userID) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// CreatePattern stores a custom pattern for the user. The slug is derived
// from the name and must be unique across all patterns, presets included.
func (s *Service) CreatePattern(userID string, p domain.BreathingPattern) (*domain.BreathingPattern, error) {
	p.ID = uuid.New().String()
	p.UserID = userID
	p.Preset = false
	p.Slug = slugify(p.Name)
	p.CreatedAt = s.now().UTC()

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if p.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", domain.ErrInvalidInput)
	}

	if err := s.repo.CreatePattern(&p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a pattern named %q already exists", domain.ErrInvalidInput, p.Name)
		}
		return nil, err
	}
	return &p, nil
}

// UpdatePattern replaces the editable fields of a custom pattern. Presets
// and other users' patterns are refused.
func (s *Service) UpdatePattern(userID, id string, upd domain.BreathingPattern) (*domain.BreathingPattern, error) {
	existing, err := s.repo.PatternByID(id)
	if err != nil {
		return nil, err
	}
	if !existing.VisibleTo(userID) {
		return nil, domain.ErrNotFound
	}
	if !existing.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}

	existing.Name = upd.Name
	existing.Description = upd.Description
	existing.InhaleSec = upd.InhaleSec
	existing.InhaleHoldSec = upd.InhaleHoldSec
	existing.ExhaleSec = upd.ExhaleSec
	existing.ExhaleHoldSec = upd.ExhaleHoldSec
	existing.Slug = slugify(upd.Name)

	if err := existing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if existing.Slug == "" {
		return nil, fmt.Errorf("%w: name must contain letters or digits", domain.ErrInvalidInput)
	}

	if err := s.repo.UpdatePattern(existing); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: a pattern named %q already exists", domain.ErrInvalidInput, upd.Name)
		}
		return nil, err
	}
	return existing, nil
}

// DeletePattern removes a custom pattern. Deletion is refused while any
// session still references it.
func (s *Service) DeletePattern(userID, id string) error {
	existing, err := s.repo.PatternByID(id)
	if err != nil {
		return err
	}
	if !existing.VisibleTo(userID) {
		return domain.ErrNotFound
	}
	if !existing.OwnedBy(userID) {
		return domain.ErrForbidden
	}

	return s.repo.DeletePattern(id)
}

// slugify lowercases the name and collapses every non-alphanumeric run into
// a single hyphen.
func slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(name) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

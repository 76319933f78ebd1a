package domain

import (
	"fmt"
	"time"
)

const (
	MaxPhaseSec = 10
	MaxCycleSec = 60
)

// BreathingPattern is a named cadence of four phase durations. Presets are
// shared and immutable; custom patterns belong to a single user.
type BreathingPattern struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	InhaleSec     int       `json:"inhaleSec"`
	InhaleHoldSec int       `json:"inhaleHoldSec"`
	ExhaleSec     int       `json:"exhaleSec"`
	ExhaleHoldSec int       `json:"exhaleHoldSec"`
	Preset        bool      `json:"preset"`
	UserID        string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CycleSec is the length of one full breath cycle.
func (p *BreathingPattern) CycleSec() int {
	return p.InhaleSec + p.InhaleHoldSec + p.ExhaleSec + p.ExhaleHoldSec
}

// Validate checks the phase durations: inhale and exhale at least 1s, holds
// non-negative, every phase at most MaxPhaseSec, whole cycle at most
// MaxCycleSec.
func (p *BreathingPattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pattern name required")
	}
	if p.InhaleSec < 1 {
		return fmt.Errorf("inhale must be at least 1s")
	}
	if p.ExhaleSec < 1 {
		return fmt.Errorf("exhale must be at least 1s")
	}
	if p.InhaleHoldSec < 0 || p.ExhaleHoldSec < 0 {
		return fmt.Errorf("hold durations must be non-negative")
	}
	for _, d := range []int{p.InhaleSec, p.InhaleHoldSec, p.ExhaleSec, p.ExhaleHoldSec} {
		if d > MaxPhaseSec {
			return fmt.Errorf("phase duration %ds exceeds %ds maximum", d, MaxPhaseSec)
		}
	}
	if c := p.CycleSec(); c > MaxCycleSec {
		return fmt.Errorf("cycle length %ds exceeds %ds maximum", c, MaxCycleSec)
	}
	return nil
}

// OwnedBy reports whether userID may modify the pattern.
func (p *BreathingPattern) OwnedBy(userID string) bool {
	return !p.Preset && p.UserID != "" && p.UserID == userID
}

// VisibleTo reports whether userID may practice the pattern.
func (p *BreathingPattern) VisibleTo(userID string) bool {
	return p.Preset || p.UserID == userID
}

// PresetPatterns returns the built-in patterns seeded at startup. IDs are
// assigned at insert time; slugs are the stable identity.
func PresetPatterns() []BreathingPattern {
	return []BreathingPattern{
		{
			Name:          "Box Breathing",
			Slug:          "box-breathing",
			Description:   "Equal breathing for calm focus",
			InhaleSec:     4,
			InhaleHoldSec: 4,
			ExhaleSec:     4,
			ExhaleHoldSec: 4,
			Preset:        true,
		},
		{
			Name:          "4-7-8 Relaxing Breath",
			Slug:          "relaxing-478",
			Description:   "Long exhale to wind down before sleep",
			InhaleSec:     4,
			InhaleHoldSec: 7,
			ExhaleSec:     8,
			Preset:        true,
		},
		{
			Name:          "Coherent Breathing",
			Slug:          "coherent-breathing",
			Description:   "Slow even breaths at six per minute",
			InhaleSec:     5,
			ExhaleSec:     5,
			Preset:        true,
		},
	}
}

package domain

import "testing"

func TestPatternValidate(t *testing.T) {
	tests := []struct {
		name    string
		pattern BreathingPattern
		wantErr bool
	}{
		{
			name:    "box breathing",
			pattern: BreathingPattern{Name: "Box", InhaleSec: 4, InhaleHoldSec: 4, ExhaleSec: 4, ExhaleHoldSec: 4},
		},
		{
			name:    "no holds",
			pattern: BreathingPattern{Name: "Coherent", InhaleSec: 5, ExhaleSec: 5},
		},
		{
			name:    "phases at the cap",
			pattern: BreathingPattern{Name: "Slow", InhaleSec: 10, InhaleHoldSec: 10, ExhaleSec: 10, ExhaleHoldSec: 10},
		},
		{
			name:    "missing name",
			pattern: BreathingPattern{InhaleSec: 4, ExhaleSec: 4},
			wantErr: true,
		},
		{
			name:    "zero inhale",
			pattern: BreathingPattern{Name: "X", InhaleSec: 0, ExhaleSec: 4},
			wantErr: true,
		},
		{
			name:    "zero exhale",
			pattern: BreathingPattern{Name: "X", InhaleSec: 4, ExhaleSec: 0},
			wantErr: true,
		},
		{
			name:    "negative hold",
			pattern: BreathingPattern{Name: "X", InhaleSec: 4, InhaleHoldSec: -1, ExhaleSec: 4},
			wantErr: true,
		},
		{
			name:    "inhale above cap",
			pattern: BreathingPattern{Name: "X", InhaleSec: 11, ExhaleSec: 4},
			wantErr: true,
		},
		{
			name:    "hold above cap",
			pattern: BreathingPattern{Name: "X", InhaleSec: 4, ExhaleSec: 4, ExhaleHoldSec: 11},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pattern.Validate()

			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCycleSec(t *testing.T) {
	p := BreathingPattern{InhaleSec: 4, InhaleHoldSec: 7, ExhaleSec: 8}

	if got := p.CycleSec(); got != 19 {
		t.Fatalf("CycleSec() = %d want 19", got)
	}
}

func TestPhases(t *testing.T) {
	tests := []struct {
		name     string
		pattern  BreathingPattern
		expected []Phase
	}{
		{
			name:    "all four phases",
			pattern: BreathingPattern{InhaleSec: 4, InhaleHoldSec: 4, ExhaleSec: 4, ExhaleHoldSec: 4},
			expected: []Phase{
				{Name: "inhale", Seconds: 4},
				{Name: "hold", Seconds: 4},
				{Name: "exhale", Seconds: 4},
				{Name: "hold", Seconds: 4},
			},
		},
		{
			name:    "zero holds dropped",
			pattern: BreathingPattern{InhaleSec: 5, ExhaleSec: 5},
			expected: []Phase{
				{Name: "inhale", Seconds: 5},
				{Name: "exhale", Seconds: 5},
			},
		},
		{
			name:    "only inhale hold",
			pattern: BreathingPattern{InhaleSec: 4, InhaleHoldSec: 7, ExhaleSec: 8},
			expected: []Phase{
				{Name: "inhale", Seconds: 4},
				{Name: "hold", Seconds: 7},
				{Name: "exhale", Seconds: 8},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.pattern.Phases()

			if len(got) != len(tt.expected) {
				t.Fatalf("len(phases) = %d want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("phase %d = %+v want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestPresetPatternsValid(t *testing.T) {
	presets := PresetPatterns()

	if len(presets) != 3 {
		t.Fatalf("len(presets) = %d want 3", len(presets))
	}

	slugs := make(map[string]bool)
	for _, p := range presets {
		if !p.Preset {
			t.Errorf("preset %q missing Preset flag", p.Slug)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", p.Slug, err)
		}
		if slugs[p.Slug] {
			t.Errorf("duplicate preset slug %q", p.Slug)
		}
		slugs[p.Slug] = true
	}
}

func TestOwnership(t *testing.T) {
	preset := BreathingPattern{Slug: "box-breathing", Preset: true}
	custom := BreathingPattern{Slug: "my-pattern", UserID: "u1"}

	if preset.OwnedBy("u1") {
		t.Fatal("preset must not be owned by anyone")
	}
	if !preset.VisibleTo("u2") {
		t.Fatal("preset must be visible to every user")
	}

	if !custom.OwnedBy("u1") {
		t.Fatal("custom pattern not owned by its creator")
	}
	if custom.OwnedBy("u2") {
		t.Fatal("custom pattern owned by a stranger")
	}
	if custom.VisibleTo("u2") {
		t.Fatal("custom pattern visible to a stranger")
	}
	if !custom.VisibleTo("u1") {
		t.Fatal("custom pattern not visible to its owner")
	}
}

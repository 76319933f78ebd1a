package domain

// Phase is one timed segment of a breath cycle, in the order a client
// animates them.
type Phase struct {
	Name    string `json:"name"`
	Seconds int    `json:"seconds"`
}

// Phases expands the pattern into the ordered phases of a single cycle,
// dropping zero-length holds.
func (p *BreathingPattern) Phases() []Phase {
	phases := make([]Phase, 0, 4)
	phases = append(phases, Phase{Name: "inhale", Seconds: p.InhaleSec})
	if p.InhaleHoldSec > 0 {
		phases = append(phases, Phase{Name: "hold", Seconds: p.InhaleHoldSec})
	}
	phases = append(phases, Phase{Name: "exhale", Seconds: p.ExhaleSec})
	if p.ExhaleHoldSec > 0 {
		phases = append(phases, Phase{Name: "hold", Seconds: p.ExhaleHoldSec})
	}
	return phases
}

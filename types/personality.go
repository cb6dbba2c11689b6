package types

import "time"

// ResponseSpeed is the categorical pacing trait of a personality.
type ResponseSpeed string

const (
	ResponseSpeedFast   ResponseSpeed = "fast"
	ResponseSpeedMedium ResponseSpeed = "medium"
	ResponseSpeedSlow   ResponseSpeed = "slow"
)

// Verbosity is the categorical length trait of a personality.
type Verbosity string

const (
	VerbosityConcise  Verbosity = "concise"
	VerbosityMedium   Verbosity = "medium"
	VerbosityDetailed Verbosity = "detailed"
)

// Personality is the parameter vector that adapts the agent's responses to a
// channel. Numeric traits are always within [0,100].
type Personality struct {
	Formality     int           `json:"formality_level"`
	Humor         int           `json:"humor_level"`
	Technicality  int           `json:"technicality_level"`
	ResponseSpeed ResponseSpeed `json:"response_speed"`
	Verbosity     Verbosity     `json:"verbosity"`
	LastUpdated   time.Time     `json:"last_updated"`
}

// DefaultPersonality returns the all-neutral personality assigned to a
// channel at creation.
func DefaultPersonality(now time.Time) Personality {
	return Personality{
		Formality:     50,
		Humor:         50,
		Technicality:  50,
		ResponseSpeed: ResponseSpeedMedium,
		Verbosity:     VerbosityMedium,
		LastUpdated:   now,
	}
}

// ClampTrait forces a numeric trait into [0,100].
func ClampTrait(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Sanitize clamps numeric traits and substitutes defaults for unknown
// categorical values. Out-of-range writes are repaired rather than rejected
// because a safe default exists for every field.
func (p Personality) Sanitize() Personality {
	p.Formality = ClampTrait(p.Formality)
	p.Humor = ClampTrait(p.Humor)
	p.Technicality = ClampTrait(p.Technicality)
	switch p.ResponseSpeed {
	case ResponseSpeedFast, ResponseSpeedMedium, ResponseSpeedSlow:
	default:
		p.ResponseSpeed = ResponseSpeedMedium
	}
	switch p.Verbosity {
	case VerbosityConcise, VerbosityMedium, VerbosityDetailed:
	default:
		p.Verbosity = VerbosityMedium
	}
	return p
}

package valueobjects

import (
	"strings"

	"exerciselinks/pkg/errors"
)

// Exercise type tags carried by exercises
const (
	ExerciseTypeWorkout  = "Workout"
	ExerciseTypeWarmup   = "Warmup"
	ExerciseTypeCooldown = "Cooldown"
	ExerciseTypeRest     = "Rest"
)

// LinkType is the closed set of relationships a link can express
type LinkType string

const (
	LinkTypeWarmup   LinkType = "Warmup"
	LinkTypeCooldown LinkType = "Cooldown"
)

// AllLinkTypes lists every supported link type
func AllLinkTypes() []LinkType {
	return []LinkType{LinkTypeWarmup, LinkTypeCooldown}
}

// ParseLinkType accepts the canonical names case-insensitively
func ParseLinkType(s string) (LinkType, error) {
	for _, lt := range AllLinkTypes() {
		if strings.EqualFold(s, string(lt)) {
			return lt, nil
		}
	}
	return "", errors.ErrInvalidFormat.Clone().
		WithMessage("Link type must be one of: Warmup, Cooldown").
		WithDetail("value", s)
}

// String returns the canonical name
func (t LinkType) String() string {
	return string(t)
}

// IsValid reports whether t is one of the supported link types
func (t LinkType) IsValid() bool {
	return t == LinkTypeWarmup || t == LinkTypeCooldown
}

// RequiredTargetTag is the exercise type the link target must carry
func (t LinkType) RequiredTargetTag() string {
	switch t {
	case LinkTypeWarmup:
		return ExerciseTypeWarmup
	case LinkTypeCooldown:
		return ExerciseTypeCooldown
	default:
		return ""
	}
}

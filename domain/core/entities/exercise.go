package entities

import (
	"exerciselinks/domain/core/valueobjects"
)

// Exercise is the read-only view of an exercise that link rules need.
// Exercises are owned elsewhere; this package never mutates them.
type Exercise struct {
	ID          valueobjects.ExerciseID `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	IsActive    bool                    `json:"isActive"`
	Types       []string                `json:"exerciseTypes"`
}

// HasType reports whether the exercise carries the given type tag
func (e *Exercise) HasType(tag string) bool {
	for _, t := range e.Types {
		if t == tag {
			return true
		}
	}
	return false
}

// IsRest reports whether the exercise carries the Rest tag
func (e *Exercise) IsRest() bool {
	return e.HasType(valueobjects.ExerciseTypeRest)
}

package valueobjects

import (
	"encoding/json"
	stderrors "errors"
	"strings"

	"exerciselinks/pkg/errors"

	"github.com/google/uuid"
)

const (
	exercisePrefix     = "exercise-"
	exerciseLinkPrefix = "exerciselink-"
)

var errMalformedID = stderrors.New("malformed prefixed identifier")

// ExerciseID is a value object identifying an exercise.
// The wire form is "exercise-<uuid>".
type ExerciseID struct {
	value uuid.UUID
}

// NewExerciseID creates a new random ExerciseID
func NewExerciseID() ExerciseID {
	return ExerciseID{value: uuid.New()}
}

// ParseExerciseID parses the "exercise-<uuid>" form
func ParseExerciseID(s string) (ExerciseID, error) {
	id, err := parsePrefixed(s, exercisePrefix)
	if err != nil {
		return ExerciseID{}, errors.ErrInvalidFormat.Clone().
			WithMessage("Invalid exercise ID format: " + s).
			WithDetail("value", s)
	}
	return ExerciseID{value: id}, nil
}

// MustParseExerciseID panics on malformed input. Intended for fixtures.
func MustParseExerciseID(s string) ExerciseID {
	id, err := ParseExerciseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the prefixed representation
func (id ExerciseID) String() string {
	if id.IsZero() {
		return ""
	}
	return exercisePrefix + id.value.String()
}

// Equals checks if two ExerciseIDs are equal
func (id ExerciseID) Equals(other ExerciseID) bool {
	return id.value == other.value
}

// IsZero checks if the ExerciseID is the zero value
func (id ExerciseID) IsZero() bool {
	return id.value == uuid.Nil
}

// MarshalJSON implements json.Marshaler
func (id ExerciseID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ExerciseID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseExerciseID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ExerciseLinkID is a value object identifying an exercise link.
// The wire form is "exerciselink-<uuid>".
type ExerciseLinkID struct {
	value uuid.UUID
}

// NewExerciseLinkID creates a new random ExerciseLinkID
func NewExerciseLinkID() ExerciseLinkID {
	return ExerciseLinkID{value: uuid.New()}
}

// ParseExerciseLinkID parses the "exerciselink-<uuid>" form
func ParseExerciseLinkID(s string) (ExerciseLinkID, error) {
	id, err := parsePrefixed(s, exerciseLinkPrefix)
	if err != nil {
		return ExerciseLinkID{}, errors.ErrInvalidFormat.Clone().
			WithMessage("Invalid link ID format: " + s).
			WithDetail("value", s)
	}
	return ExerciseLinkID{value: id}, nil
}

// String returns the prefixed representation
func (id ExerciseLinkID) String() string {
	if id.IsZero() {
		return ""
	}
	return exerciseLinkPrefix + id.value.String()
}

// Equals checks if two ExerciseLinkIDs are equal
func (id ExerciseLinkID) Equals(other ExerciseLinkID) bool {
	return id.value == other.value
}

// IsZero checks if the ExerciseLinkID is the zero value
func (id ExerciseLinkID) IsZero() bool {
	return id.value == uuid.Nil
}

// MarshalJSON implements json.Marshaler
func (id ExerciseLinkID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (id *ExerciseLinkID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseExerciseLinkID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parsePrefixed strips the entity prefix and validates the remaining uuid.
// The nil uuid is rejected so the zero value never round-trips.
func parsePrefixed(s, prefix string) (uuid.UUID, error) {
	if !strings.HasPrefix(s, prefix) {
		return uuid.Nil, errMalformedID
	}
	raw := strings.TrimPrefix(s, prefix)
	// uuid.Parse also accepts urn and braced forms; only the canonical 36 char form is valid here
	if len(raw) != 36 {
		return uuid.Nil, errMalformedID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if id == uuid.Nil {
		return uuid.Nil, errMalformedID
	}
	return id, nil
}

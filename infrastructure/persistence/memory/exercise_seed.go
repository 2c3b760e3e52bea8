package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
)

type exerciseSeed struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Active      *bool    `yaml:"active"`
	Types       []string `yaml:"types"`
}

// LoadExerciseSeed reads exercises for the memory catalog from a YAML list.
// Entries without an explicit active flag are active.
func LoadExerciseSeed(path string) ([]entities.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exercise seed %s: %w", path, err)
	}

	var seeds []exerciseSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse exercise seed %s: %w", path, err)
	}

	exercises := make([]entities.Exercise, 0, len(seeds))
	for i, s := range seeds {
		id, err := valueobjects.ParseExerciseID(s.ID)
		if err != nil {
			return nil, fmt.Errorf("exercise seed entry %d: %w", i, err)
		}
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		exercises = append(exercises, entities.Exercise{
			ID:          id,
			Name:        s.Name,
			Description: s.Description,
			IsActive:    active,
			Types:       s.Types,
		})
	}
	return exercises, nil
}

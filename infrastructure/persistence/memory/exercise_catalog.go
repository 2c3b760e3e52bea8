package memory

import (
	"context"
	"sync"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
)

// InMemoryExerciseCatalog is a read-mostly exercise lookup used by the memory
// backend and tests. Exercises are owned elsewhere; Put stands in for that owner.
type InMemoryExerciseCatalog struct {
	mu        sync.RWMutex
	exercises map[string]entities.Exercise
}

// NewInMemoryExerciseCatalog creates a catalog seeded with the given exercises
func NewInMemoryExerciseCatalog(seed ...entities.Exercise) *InMemoryExerciseCatalog {
	c := &InMemoryExerciseCatalog{
		exercises: make(map[string]entities.Exercise, len(seed)),
	}
	for _, e := range seed {
		c.exercises[e.ID.String()] = e
	}
	return c
}

// Put adds or replaces an exercise
func (c *InMemoryExerciseCatalog) Put(exercise entities.Exercise) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercises[exercise.ID.String()] = exercise
}

// GetByID returns a copy of the exercise, or nil, nil when unknown
func (c *InMemoryExerciseCatalog) GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.exercises[id.String()]
	if !ok {
		return nil, nil
	}
	e.Types = append([]string(nil), e.Types...)
	return &e, nil
}

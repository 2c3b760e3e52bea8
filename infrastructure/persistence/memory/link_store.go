package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/services"
)

// InMemoryLinkStore provides an in-memory implementation of ports.LinkStore.
// Links are copied on the way in and out so callers never share stored state.
type InMemoryLinkStore struct {
	mu    sync.RWMutex
	links map[string]*entities.ExerciseLink
	order []string // insertion order, used as the tie-break for equal display orders
}

// NewInMemoryLinkStore creates an empty link store
func NewInMemoryLinkStore() *InMemoryLinkStore {
	return &InMemoryLinkStore{
		links: make(map[string]*entities.ExerciseLink),
	}
}

// ExistsLink reports whether an active link with the exact triple exists
func (s *InMemoryLinkStore) ExistsLink(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if link.IsActive() &&
			link.SourceExerciseID().Equals(source) &&
			link.TargetExerciseID().Equals(target) &&
			link.LinkType() == linkType {
			return true, nil
		}
	}
	return false, nil
}

// GetOutgoing returns active links from source ordered by display order
func (s *InMemoryLinkStore) GetOutgoing(ctx context.Context, source valueobjects.ExerciseID, linkType *valueobjects.LinkType) ([]*entities.ExerciseLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entities.ExerciseLink, 0)
	for _, id := range s.order {
		link := s.links[id]
		if !link.IsActive() || !link.SourceExerciseID().Equals(source) {
			continue
		}
		if linkType != nil && link.LinkType() != *linkType {
			continue
		}
		result = append(result, link.Copy())
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].DisplayOrder() != result[j].DisplayOrder() {
			return result[i].DisplayOrder() < result[j].DisplayOrder()
		}
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})
	return result, nil
}

// GetAdjacent returns the targets of every active link from source
func (s *InMemoryLinkStore) GetAdjacent(ctx context.Context, source valueobjects.ExerciseID) ([]valueobjects.ExerciseID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var targets []valueobjects.ExerciseID
	for _, id := range s.order {
		link := s.links[id]
		if link.IsActive() && link.SourceExerciseID().Equals(source) {
			targets = append(targets, link.TargetExerciseID())
		}
	}
	return targets, nil
}

// AddLink stores a new link
func (s *InMemoryLinkStore) AddLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error) {
	if link == nil {
		return nil, fmt.Errorf("link cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := link.ID().String()
	if _, exists := s.links[key]; exists {
		return nil, fmt.Errorf("link already exists: %s", key)
	}
	s.links[key] = link.Copy()
	s.order = append(s.order, key)
	return link.Copy(), nil
}

// GetByID returns nil, nil when the link does not exist
func (s *InMemoryLinkStore) GetByID(ctx context.Context, id valueobjects.ExerciseLinkID) (*entities.ExerciseLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, exists := s.links[id.String()]
	if !exists {
		return nil, nil
	}
	return link.Copy(), nil
}

// UpdateLink replaces the stored link
func (s *InMemoryLinkStore) UpdateLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error) {
	if link == nil {
		return nil, fmt.Errorf("link cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := link.ID().String()
	if _, exists := s.links[key]; !exists {
		return nil, fmt.Errorf("link not found: %s", key)
	}
	s.links[key] = link.Copy()
	return link.Copy(), nil
}

// DeleteLink removes a link and reports whether it existed
func (s *InMemoryLinkStore) DeleteLink(ctx context.Context, id valueobjects.ExerciseLinkID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := id.String()
	if _, exists := s.links[key]; !exists {
		return false, nil
	}
	delete(s.links, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// GetMostUsed groups active links by (target, type) and returns the first
// stored link of the count largest groups
func (s *InMemoryLinkStore) GetMostUsed(ctx context.Context, count int) ([]*entities.ExerciseLink, error) {
	if count <= 0 {
		return []*entities.ExerciseLink{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return services.RankMostUsed(s.activeLinks(), count), nil
}

func (s *InMemoryLinkStore) activeLinks() []*entities.ExerciseLink {
	active := make([]*entities.ExerciseLink, 0, len(s.order))
	for _, id := range s.order {
		if link := s.links[id]; link.IsActive() {
			active = append(active, link)
		}
	}
	return active
}

// Count returns the number of stored links, active or not
func (s *InMemoryLinkStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.links)
}

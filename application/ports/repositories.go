package ports

import (
	"context"
	"errors"
	"time"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/events"
)

// ExerciseLookup resolves exercises owned by another service.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ExerciseLookup interface {
	// GetByID returns nil, nil when the exercise does not exist
	GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error)
}

// LinkStore defines the interface for exercise link persistence.
// Every query except GetByID only sees active links.
type LinkStore interface {
	// ExistsLink reports whether an active link with the exact triple exists
	ExistsLink(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) (bool, error)

	// GetOutgoing returns active links from source ordered by DisplayOrder, optionally filtered by type
	GetOutgoing(ctx context.Context, source valueobjects.ExerciseID, linkType *valueobjects.LinkType) ([]*entities.ExerciseLink, error)

	// GetAdjacent returns the targets of all active links from source, across every link type
	GetAdjacent(ctx context.Context, source valueobjects.ExerciseID) ([]valueobjects.ExerciseID, error)

	// AddLink persists a new link
	AddLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error)

	// GetByID returns nil, nil when the link does not exist
	GetByID(ctx context.Context, id valueobjects.ExerciseLinkID) (*entities.ExerciseLink, error)

	// UpdateLink persists the mutable fields of an existing link
	UpdateLink(ctx context.Context, link *entities.ExerciseLink) (*entities.ExerciseLink, error)

	// DeleteLink removes a link and reports whether it existed
	DeleteLink(ctx context.Context, id valueobjects.ExerciseLinkID) (bool, error)

	// GetMostUsed groups active links by (target, type) and returns the first link
	// of the count largest groups
	GetMostUsed(ctx context.Context, count int) ([]*entities.ExerciseLink, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Locker serializes mutations that share a resource key
type Locker interface {
	// Acquire blocks until the lock is held, the timeout elapses or ctx is done
	Acquire(ctx context.Context, resource string, lease, timeout time.Duration) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Metrics records link operation outcomes
type Metrics interface {
	RecordOperation(ctx context.Context, operation string, duration time.Duration, err error)
	RecordRejection(ctx context.Context, reason string)
}

// ErrLockNotAcquired is returned by a Locker when the lock stays held by someone else
var ErrLockNotAcquired = errors.New("lock not acquired")

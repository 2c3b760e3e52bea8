package events

import (
	"time"

	"exerciselinks/domain/core/valueobjects"
)

// SourceExerciseLinks is the event source name used when publishing externally
const SourceExerciseLinks = "exerciselinks.service"

// Event types
const (
	EventTypeLinkCreated = "link.created"
	EventTypeLinkUpdated = "link.updated"
	EventTypeLinkDeleted = "link.deleted"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// LinkCreated is raised when a link between two exercises is created
type LinkCreated struct {
	BaseEvent
	LinkID           valueobjects.ExerciseLinkID `json:"link_id"`
	SourceExerciseID valueobjects.ExerciseID     `json:"source_exercise_id"`
	TargetExerciseID valueobjects.ExerciseID     `json:"target_exercise_id"`
	LinkType         valueobjects.LinkType       `json:"link_type"`
	DisplayOrder     int                         `json:"display_order"`
}

// NewLinkCreated creates a LinkCreated event
func NewLinkCreated(
	linkID valueobjects.ExerciseLinkID,
	sourceID, targetID valueobjects.ExerciseID,
	linkType valueobjects.LinkType,
	displayOrder int,
	timestamp time.Time,
) LinkCreated {
	return LinkCreated{
		BaseEvent: BaseEvent{
			AggregateID: linkID.String(),
			EventType:   EventTypeLinkCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		LinkID:           linkID,
		SourceExerciseID: sourceID,
		TargetExerciseID: targetID,
		LinkType:         linkType,
		DisplayOrder:     displayOrder,
	}
}

// LinkUpdated is raised when the mutable fields of a link change
type LinkUpdated struct {
	BaseEvent
	LinkID           valueobjects.ExerciseLinkID `json:"link_id"`
	SourceExerciseID valueobjects.ExerciseID     `json:"source_exercise_id"`
	OldDisplayOrder  int                         `json:"old_display_order"`
	NewDisplayOrder  int                         `json:"new_display_order"`
	WasActive        bool                        `json:"was_active"`
	IsActive         bool                        `json:"is_active"`
}

// NewLinkUpdated creates a LinkUpdated event
func NewLinkUpdated(
	linkID valueobjects.ExerciseLinkID,
	sourceID valueobjects.ExerciseID,
	oldOrder, newOrder int,
	wasActive, isActive bool,
	timestamp time.Time,
) LinkUpdated {
	return LinkUpdated{
		BaseEvent: BaseEvent{
			AggregateID: linkID.String(),
			EventType:   EventTypeLinkUpdated,
			Timestamp:   timestamp,
			Version:     1,
		},
		LinkID:           linkID,
		SourceExerciseID: sourceID,
		OldDisplayOrder:  oldOrder,
		NewDisplayOrder:  newOrder,
		WasActive:        wasActive,
		IsActive:         isActive,
	}
}

// LinkDeleted is raised when a link is removed
type LinkDeleted struct {
	BaseEvent
	LinkID           valueobjects.ExerciseLinkID `json:"link_id"`
	SourceExerciseID valueobjects.ExerciseID     `json:"source_exercise_id"`
	TargetExerciseID valueobjects.ExerciseID     `json:"target_exercise_id"`
	LinkType         valueobjects.LinkType       `json:"link_type"`
}

// NewLinkDeleted creates a LinkDeleted event
func NewLinkDeleted(
	linkID valueobjects.ExerciseLinkID,
	sourceID, targetID valueobjects.ExerciseID,
	linkType valueobjects.LinkType,
	timestamp time.Time,
) LinkDeleted {
	return LinkDeleted{
		BaseEvent: BaseEvent{
			AggregateID: linkID.String(),
			EventType:   EventTypeLinkDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		LinkID:           linkID,
		SourceExerciseID: sourceID,
		TargetExerciseID: targetID,
		LinkType:         linkType,
	}
}

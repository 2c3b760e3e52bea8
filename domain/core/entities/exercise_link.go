package entities

import (
	"time"

	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/events"
	pkgerrors "exerciselinks/pkg/errors"
)

// ExerciseLink is a directed, typed relationship from a source exercise to a
// target exercise. Only DisplayOrder and IsActive change after creation.
type ExerciseLink struct {
	id           valueobjects.ExerciseLinkID
	sourceID     valueobjects.ExerciseID
	targetID     valueobjects.ExerciseID
	linkType     valueobjects.LinkType
	displayOrder int
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time

	events []events.DomainEvent
}

// NewExerciseLink creates an active link with a fresh identifier
func NewExerciseLink(
	sourceID, targetID valueobjects.ExerciseID,
	linkType valueobjects.LinkType,
	displayOrder int,
) (*ExerciseLink, error) {
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.ErrInvalidFormat.Clone().WithMessage("source and target exercise IDs are required")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.ErrSelfLink.Clone().WithDetail("exerciseId", sourceID.String())
	}
	if !linkType.IsValid() {
		return nil, pkgerrors.ErrInvalidFormat.Clone().WithDetail("linkType", linkType.String())
	}
	if displayOrder < 0 {
		return nil, pkgerrors.ErrInvalidDisplayOrder.Clone().WithDetail("displayOrder", displayOrder)
	}

	now := time.Now().UTC()
	link := &ExerciseLink{
		id:           valueobjects.NewExerciseLinkID(),
		sourceID:     sourceID,
		targetID:     targetID,
		linkType:     linkType,
		displayOrder: displayOrder,
		isActive:     true,
		createdAt:    now,
		updatedAt:    now,
	}
	link.addEvent(events.NewLinkCreated(link.id, sourceID, targetID, linkType, displayOrder, now))

	return link, nil
}

// ReconstructExerciseLink rebuilds a link from persisted state without raising events
func ReconstructExerciseLink(
	id valueobjects.ExerciseLinkID,
	sourceID, targetID valueobjects.ExerciseID,
	linkType valueobjects.LinkType,
	displayOrder int,
	isActive bool,
	createdAt, updatedAt time.Time,
) *ExerciseLink {
	return &ExerciseLink{
		id:           id,
		sourceID:     sourceID,
		targetID:     targetID,
		linkType:     linkType,
		displayOrder: displayOrder,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (l *ExerciseLink) ID() valueobjects.ExerciseLinkID          { return l.id }
func (l *ExerciseLink) SourceExerciseID() valueobjects.ExerciseID { return l.sourceID }
func (l *ExerciseLink) TargetExerciseID() valueobjects.ExerciseID { return l.targetID }
func (l *ExerciseLink) LinkType() valueobjects.LinkType           { return l.linkType }
func (l *ExerciseLink) DisplayOrder() int                         { return l.displayOrder }
func (l *ExerciseLink) IsActive() bool                            { return l.isActive }
func (l *ExerciseLink) CreatedAt() time.Time                      { return l.createdAt }
func (l *ExerciseLink) UpdatedAt() time.Time                      { return l.updatedAt }

// BelongsTo reports whether the link originates at the given exercise
func (l *ExerciseLink) BelongsTo(exerciseID valueobjects.ExerciseID) bool {
	return l.sourceID.Equals(exerciseID)
}

// Update applies the mutable fields and stamps UpdatedAt
func (l *ExerciseLink) Update(displayOrder int, isActive bool) error {
	if displayOrder < 0 {
		return pkgerrors.ErrInvalidDisplayOrder.Clone().WithDetail("displayOrder", displayOrder)
	}

	oldOrder, wasActive := l.displayOrder, l.isActive
	l.displayOrder = displayOrder
	l.isActive = isActive
	l.updatedAt = time.Now().UTC()

	l.addEvent(events.NewLinkUpdated(l.id, l.sourceID, oldOrder, displayOrder, wasActive, isActive, l.updatedAt))
	return nil
}

// Copy returns a detached copy without pending events.
// Stores hand out copies so callers cannot mutate stored state.
func (l *ExerciseLink) Copy() *ExerciseLink {
	return ReconstructExerciseLink(l.id, l.sourceID, l.targetID, l.linkType, l.displayOrder, l.isActive, l.createdAt, l.updatedAt)
}

// GetUncommittedEvents returns all uncommitted domain events
func (l *ExerciseLink) GetUncommittedEvents() []events.DomainEvent {
	return l.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (l *ExerciseLink) MarkEventsAsCommitted() {
	l.events = nil
}

func (l *ExerciseLink) addEvent(event events.DomainEvent) {
	l.events = append(l.events, event)
}

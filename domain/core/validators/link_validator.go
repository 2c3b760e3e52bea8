package validators

import (
	"context"
	"fmt"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/pkg/errors"
)

// ExerciseReader resolves exercise snapshots. A nil exercise with a nil error means unknown.
type ExerciseReader interface {
	GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error)
}

// LinkReader is the read side of the link store used by the rules
type LinkReader interface {
	ExistsLink(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) (bool, error)
	GetOutgoing(ctx context.Context, source valueobjects.ExerciseID, linkType *valueobjects.LinkType) ([]*entities.ExerciseLink, error)
}

// CycleChecker decides whether a new edge would close a cycle
type CycleChecker interface {
	WouldCreateCycle(ctx context.Context, source, target valueobjects.ExerciseID) (bool, error)
}

// ValidatedLink carries the parsed values of a proposal that passed every rule
type ValidatedLink struct {
	Source   valueobjects.ExerciseID
	Target   valueobjects.ExerciseID
	LinkType valueobjects.LinkType
}

// LinkValidator applies the link business rules in a fixed order and stops at
// the first failure. It only reads.
type LinkValidator struct {
	exercises       ExerciseReader
	links           LinkReader
	cycles          CycleChecker
	maxLinksPerType int
}

// NewLinkValidator creates a validator
func NewLinkValidator(exercises ExerciseReader, links LinkReader, cycles CycleChecker, maxLinksPerType int) *LinkValidator {
	return &LinkValidator{
		exercises:       exercises,
		links:           links,
		cycles:          cycles,
		maxLinksPerType: maxLinksPerType,
	}
}

// Validate checks a proposed link from raw identifiers
func (v *LinkValidator) Validate(ctx context.Context, sourceID, targetID, linkType string) (*ValidatedLink, error) {
	source, err := valueobjects.ParseExerciseID(sourceID)
	if err != nil {
		return nil, err
	}
	target, err := valueobjects.ParseExerciseID(targetID)
	if err != nil {
		return nil, err
	}
	lt, err := valueobjects.ParseLinkType(linkType)
	if err != nil {
		return nil, err
	}

	if source.Equals(target) {
		return nil, errors.ErrSelfLink.Clone().WithDetail("exerciseId", sourceID)
	}

	if err := v.validateSource(ctx, source); err != nil {
		return nil, err
	}
	if err := v.validateTarget(ctx, target, lt); err != nil {
		return nil, err
	}
	if err := v.validateGraph(ctx, source, target, lt); err != nil {
		return nil, err
	}

	return &ValidatedLink{Source: source, Target: target, LinkType: lt}, nil
}

// ValidateReactivation re-checks the graph rules for an inactive link that is
// about to become active again. Endpoint rules held when it was created.
func (v *LinkValidator) ValidateReactivation(ctx context.Context, link *entities.ExerciseLink) error {
	return v.validateGraph(ctx, link.SourceExerciseID(), link.TargetExerciseID(), link.LinkType())
}

func (v *LinkValidator) validateSource(ctx context.Context, source valueobjects.ExerciseID) error {
	exercise, err := v.exercises.GetByID(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load source exercise: %w", err)
	}
	if exercise == nil || !exercise.IsActive {
		return errors.ErrSourceNotFoundOrInactive.Clone().
			WithMessage(fmt.Sprintf("Source exercise %s not found or inactive", source)).
			WithDetail("exerciseId", source.String())
	}
	// Rest is checked before the role so a Rest-only exercise reports exclusivity
	if exercise.IsRest() {
		return errors.ErrRestExclusivity.Clone().
			WithMessage("REST exercises cannot have links").
			WithDetail("exerciseId", source.String())
	}
	if !exercise.HasType(valueobjects.ExerciseTypeWorkout) {
		return errors.ErrSourceTypeMismatch.Clone().WithDetail("exerciseId", source.String())
	}
	return nil
}

func (v *LinkValidator) validateTarget(ctx context.Context, target valueobjects.ExerciseID, linkType valueobjects.LinkType) error {
	exercise, err := v.exercises.GetByID(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to load target exercise: %w", err)
	}
	if exercise == nil || !exercise.IsActive {
		return errors.ErrTargetNotFoundOrInactive.Clone().
			WithMessage(fmt.Sprintf("Target exercise %s not found or inactive", target)).
			WithDetail("exerciseId", target.String())
	}
	if exercise.IsRest() {
		return errors.ErrRestExclusivity.Clone().WithDetail("exerciseId", target.String())
	}
	if !exercise.HasType(linkType.RequiredTargetTag()) {
		return errors.ErrTargetTypeMismatch.Clone().
			WithMessage(fmt.Sprintf("Target exercise must be of type '%s'", linkType)).
			WithDetail("exerciseId", target.String()).
			WithDetail("linkType", linkType.String())
	}
	return nil
}

// validateGraph runs the duplicate, cycle and cardinality rules in that order
func (v *LinkValidator) validateGraph(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) error {
	exists, err := v.links.ExistsLink(ctx, source, target, linkType)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate link: %w", err)
	}
	if exists {
		return errors.ErrDuplicateLink.Clone().
			WithMessage(fmt.Sprintf("A %s link already exists between these exercises", linkType)).
			WithDetail("sourceExerciseId", source.String()).
			WithDetail("targetExerciseId", target.String())
	}

	cyclic, err := v.cycles.WouldCreateCycle(ctx, source, target)
	if err != nil {
		return fmt.Errorf("failed to check for circular reference: %w", err)
	}
	if cyclic {
		return errors.ErrCircularReference.Clone().
			WithDetail("sourceExerciseId", source.String()).
			WithDetail("targetExerciseId", target.String())
	}

	existing, err := v.links.GetOutgoing(ctx, source, &linkType)
	if err != nil {
		return fmt.Errorf("failed to count existing links: %w", err)
	}
	if len(existing) >= v.maxLinksPerType {
		return errors.ErrCardinalityExceeded.Clone().
			WithMessage(fmt.Sprintf("Maximum number of %s links (%d) has been reached", linkType, v.maxLinksPerType)).
			WithDetail("limit", v.maxLinksPerType).
			WithDetail("linkType", linkType.String())
	}

	return nil
}

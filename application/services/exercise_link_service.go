package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"exerciselinks/application/ports"
	"exerciselinks/domain/config"
	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/validators"
	"exerciselinks/domain/core/valueobjects"
	domainservices "exerciselinks/domain/services"
	"exerciselinks/domain/events"
	"exerciselinks/pkg/errors"

	"go.uber.org/zap"
)

// Operation names reported to metrics
const (
	OpCreateLink         = "CreateLink"
	OpGetLinks           = "GetLinks"
	OpUpdateLink         = "UpdateLink"
	OpDeleteLink         = "DeleteLink"
	OpGetSuggestedLinks  = "GetSuggestedLinks"
	linkLockResourceBase = "exercise-links#"
)

// ExerciseLinkService orchestrates link mutations and queries.
// Mutations on the same source exercise are serialized through the Locker so
// that validation and the write observe the same state.
type ExerciseLinkService struct {
	links     ports.LinkStore
	exercises ports.ExerciseLookup
	validator *validators.LinkValidator
	locker    ports.Locker
	publisher ports.EventPublisher
	metrics   ports.Metrics
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewExerciseLinkService creates a new link service
func NewExerciseLinkService(
	links ports.LinkStore,
	exercises ports.ExerciseLookup,
	locker ports.Locker,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ExerciseLinkService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	detector := domainservices.NewCycleDetector(links.GetAdjacent, cfg.MaxTraversalNodes)
	return &ExerciseLinkService{
		links:     links,
		exercises: exercises,
		validator: validators.NewLinkValidator(exercises, links, detector, cfg.MaxLinksPerType),
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateLink validates and stores a new link from sourceID
func (s *ExerciseLinkService) CreateLink(ctx context.Context, sourceID string, req CreateLinkRequest) (dto *ExerciseLinkDTO, err error) {
	defer s.record(ctx, OpCreateLink, time.Now(), &err)

	source, err := valueobjects.ParseExerciseID(sourceID)
	if err != nil {
		return nil, err
	}
	if req.DisplayOrder < 0 {
		return nil, errors.ErrInvalidDisplayOrder.Clone().WithDetail("displayOrder", req.DisplayOrder)
	}

	s.logger.Debug("Creating exercise link",
		zap.String("source_exercise_id", sourceID),
		zap.String("target_exercise_id", req.TargetExerciseID),
		zap.String("link_type", req.LinkType),
	)

	release, err := s.lockSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer release()

	validated, err := s.validator.Validate(ctx, sourceID, req.TargetExerciseID, req.LinkType)
	if err != nil {
		return nil, err
	}

	link, err := entities.NewExerciseLink(validated.Source, validated.Target, validated.LinkType, req.DisplayOrder)
	if err != nil {
		return nil, err
	}
	pending := link.GetUncommittedEvents()

	saved, err := s.links.AddLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	s.publishEvents(ctx, pending)
	link.MarkEventsAsCommitted()

	s.logger.Info("Exercise link created",
		zap.String("link_id", saved.ID().String()),
		zap.String("source_exercise_id", saved.SourceExerciseID().String()),
		zap.String("target_exercise_id", saved.TargetExerciseID().String()),
		zap.String("link_type", saved.LinkType().String()),
	)
	return toDTO(saved), nil
}

// GetLinks returns the active outgoing links of an exercise. An empty linkType
// returns every type. With includeDetail each link carries its target exercise.
func (s *ExerciseLinkService) GetLinks(ctx context.Context, exerciseID, linkType string, includeDetail bool) (resp *LinksResponse, err error) {
	defer s.record(ctx, OpGetLinks, time.Now(), &err)

	source, err := valueobjects.ParseExerciseID(exerciseID)
	if err != nil {
		return nil, err
	}

	var filter *valueobjects.LinkType
	if linkType != "" {
		lt, err := valueobjects.ParseLinkType(linkType)
		if err != nil {
			return nil, err
		}
		filter = &lt
	}

	links, err := s.links.GetOutgoing(ctx, source, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}

	resp = &LinksResponse{
		ExerciseID: source.String(),
		Links:      make([]*ExerciseLinkDTO, 0, len(links)),
	}
	for _, link := range links {
		dto := toDTO(link)
		if includeDetail {
			target, err := s.exercises.GetByID(ctx, link.TargetExerciseID())
			if err != nil {
				return nil, fmt.Errorf("failed to load target exercise: %w", err)
			}
			dto.TargetExercise = target
		}
		resp.Links = append(resp.Links, dto)
	}
	return resp, nil
}

// UpdateLink changes the display order and active flag of a link owned by exerciseID
func (s *ExerciseLinkService) UpdateLink(ctx context.Context, exerciseID, linkID string, req UpdateLinkRequest) (dto *ExerciseLinkDTO, err error) {
	defer s.record(ctx, OpUpdateLink, time.Now(), &err)

	source, err := valueobjects.ParseExerciseID(exerciseID)
	if err != nil {
		return nil, err
	}
	id, err := valueobjects.ParseExerciseLinkID(linkID)
	if err != nil {
		return nil, err
	}
	if req.DisplayOrder < 0 {
		return nil, errors.ErrInvalidDisplayOrder.Clone().WithDetail("displayOrder", req.DisplayOrder)
	}

	release, err := s.lockSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer release()

	link, err := s.ownedLink(ctx, source, id)
	if err != nil {
		return nil, err
	}

	if !link.IsActive() && req.IsActive {
		if err := s.validator.ValidateReactivation(ctx, link); err != nil {
			return nil, err
		}
	}

	if err := link.Update(req.DisplayOrder, req.IsActive); err != nil {
		return nil, err
	}
	pending := link.GetUncommittedEvents()

	saved, err := s.links.UpdateLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	s.publishEvents(ctx, pending)
	link.MarkEventsAsCommitted()

	return toDTO(saved), nil
}

// DeleteLink removes a link owned by exerciseID. It reports false when the
// link does not exist.
func (s *ExerciseLinkService) DeleteLink(ctx context.Context, exerciseID, linkID string) (deleted bool, err error) {
	defer s.record(ctx, OpDeleteLink, time.Now(), &err)

	source, err := valueobjects.ParseExerciseID(exerciseID)
	if err != nil {
		return false, err
	}
	id, err := valueobjects.ParseExerciseLinkID(linkID)
	if err != nil {
		return false, err
	}

	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get link: %w", err)
	}
	if link == nil {
		return false, nil
	}
	if !link.BelongsTo(source) {
		return false, errors.ErrOwnershipMismatch.Clone().
			WithDetail("exerciseId", source.String()).
			WithDetail("linkId", id.String())
	}

	deleted, err = s.links.DeleteLink(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete link: %w", err)
	}
	if deleted {
		s.publishEvents(ctx, []events.DomainEvent{
			events.NewLinkDeleted(link.ID(), link.SourceExerciseID(), link.TargetExerciseID(), link.LinkType(), time.Now().UTC()),
		})
	}
	return deleted, nil
}

// GetSuggestedLinks returns representatives of the most used (target, type)
// pairs across all exercises. Zero means the default count.
func (s *ExerciseLinkService) GetSuggestedLinks(ctx context.Context, exerciseID string, count int) (dtos []*ExerciseLinkDTO, err error) {
	defer s.record(ctx, OpGetSuggestedLinks, time.Now(), &err)

	if _, err := valueobjects.ParseExerciseID(exerciseID); err != nil {
		return nil, err
	}
	if count == 0 {
		count = s.cfg.DefaultSuggestionCount
	}
	if count < s.cfg.MinSuggestionCount || count > s.cfg.MaxSuggestionCount {
		return nil, errors.ErrInvalidSuggestionCount.Clone().
			WithDetail("count", count).
			WithDetail("min", s.cfg.MinSuggestionCount).
			WithDetail("max", s.cfg.MaxSuggestionCount)
	}

	links, err := s.links.GetMostUsed(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("failed to get most used links: %w", err)
	}

	dtos = make([]*ExerciseLinkDTO, 0, len(links))
	for _, link := range links {
		dtos = append(dtos, toDTO(link))
	}
	return dtos, nil
}

func (s *ExerciseLinkService) ownedLink(ctx context.Context, source valueobjects.ExerciseID, id valueobjects.ExerciseLinkID) (*entities.ExerciseLink, error) {
	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	if link == nil {
		return nil, errors.ErrLinkNotFound.Clone().WithDetail("linkId", id.String())
	}
	if !link.BelongsTo(source) {
		return nil, errors.ErrOwnershipMismatch.Clone().
			WithDetail("exerciseId", source.String()).
			WithDetail("linkId", id.String())
	}
	return link, nil
}

// lockSource takes the per-source lock and returns its release func
func (s *ExerciseLinkService) lockSource(ctx context.Context, source valueobjects.ExerciseID) (func(), error) {
	resource := linkLockResourceBase + source.String()
	lock, err := s.locker.Acquire(ctx, resource, s.cfg.LockLease, s.cfg.LockTimeout)
	if err != nil {
		if stderrors.Is(err, ports.ErrLockNotAcquired) {
			return nil, errors.ErrConcurrentModification.Clone().
				WithCause(err).
				WithDetail("exerciseId", source.String())
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return func() {
		// The caller's context may already be cancelled; release regardless.
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release link lock",
				zap.String("resource", resource),
				zap.Error(err),
			)
		}
	}, nil
}

// publishEvents is best effort. The write has already succeeded.
func (s *ExerciseLinkService) publishEvents(ctx context.Context, pending []events.DomainEvent) {
	if s.publisher == nil || len(pending) == 0 {
		return
	}
	if err := s.publisher.PublishBatch(ctx, pending); err != nil {
		s.logger.Error("Failed to publish link events",
			zap.Int("event_count", len(pending)),
			zap.Error(errors.ErrEventPublishFailed.Clone().WithCause(err)),
		)
	}
}

func (s *ExerciseLinkService) record(ctx context.Context, op string, start time.Time, errp *error) {
	if s.metrics == nil {
		return
	}
	err := *errp
	s.metrics.RecordOperation(ctx, op, time.Since(start), err)
	if domainErr, ok := errors.AsDomainError(err); ok {
		s.metrics.RecordRejection(ctx, domainErr.Code)
	}
}

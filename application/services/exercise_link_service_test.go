package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"exerciselinks/application/ports"
	"exerciselinks/domain/config"
	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/events"
	"exerciselinks/infrastructure/persistence/memory"
	"exerciselinks/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	return m.Called(ctx, batch).Error(0)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) Acquire(ctx context.Context, resource string, lease, timeout time.Duration) (ports.Lock, error) {
	args := m.Called(ctx, resource, lease, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Lock), args.Error(1)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	m.Called(ctx, operation, duration, err)
}

func (m *mockMetrics) RecordRejection(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

type fixture struct {
	service   *ExerciseLinkService
	links     *memory.InMemoryLinkStore
	catalog   *memory.InMemoryExerciseCatalog
	publisher *memory.InMemoryEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		links:     memory.NewInMemoryLinkStore(),
		catalog:   memory.NewInMemoryExerciseCatalog(),
		publisher: memory.NewInMemoryEventPublisher(zap.NewNop()),
	}
	f.service = NewExerciseLinkService(
		f.links, f.catalog, memory.NewMutexLocker(), f.publisher, nil,
		config.DefaultDomainConfig(), zap.NewNop(),
	)
	return f
}

func (f *fixture) exercise(types ...string) string {
	id := valueobjects.NewExerciseID()
	f.catalog.Put(entities.Exercise{ID: id, Name: "exercise", IsActive: true, Types: types})
	return id.String()
}

func (f *fixture) create(t *testing.T, source, target string, lt valueobjects.LinkType, order int) *ExerciseLinkDTO {
	t.Helper()
	dto, err := f.service.CreateLink(context.Background(), source, CreateLinkRequest{
		TargetExerciseID: target,
		LinkType:         lt.String(),
		DisplayOrder:     order,
	})
	require.NoError(t, err)
	return dto
}

func assertDomainError(t *testing.T, err error, want *errors.DomainError) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, want), "expected %s, got %v", want.Code, err)
}

func TestCreateLink_Success(t *testing.T) {
	// Arrange
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	b := f.exercise(valueobjects.ExerciseTypeWarmup)

	// Act
	dto, err := f.service.CreateLink(context.Background(), a, CreateLinkRequest{
		TargetExerciseID: b,
		LinkType:         "Warmup",
		DisplayOrder:     1,
	})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, dto.ID)
	_, err = valueobjects.ParseExerciseLinkID(dto.ID)
	assert.NoError(t, err)
	assert.Equal(t, a, dto.SourceExerciseID)
	assert.Equal(t, b, dto.TargetExerciseID)
	assert.Equal(t, "Warmup", dto.LinkType)
	assert.Equal(t, 1, dto.DisplayOrder)
	assert.True(t, dto.IsActive)

	published := f.publisher.Events()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeLinkCreated, published[0].GetEventType())
	assert.Equal(t, dto.ID, published[0].GetAggregateID())
}

func TestCreateLink_SelfLink(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout, valueobjects.ExerciseTypeWarmup)

	_, err := f.service.CreateLink(context.Background(), a, CreateLinkRequest{TargetExerciseID: a, LinkType: "Warmup", DisplayOrder: 1})

	assertDomainError(t, err, errors.ErrSelfLink)
	assert.Equal(t, 0, f.links.Count())
}

func TestCreateLink_ReverseEdgeIsCircular(t *testing.T) {
	// Both exercises carry both roles so only the graph rule can reject the reverse link
	f := newFixture(t)
	roles := []string{valueobjects.ExerciseTypeWorkout, valueobjects.ExerciseTypeWarmup, valueobjects.ExerciseTypeCooldown}
	a, b := f.exercise(roles...), f.exercise(roles...)
	f.create(t, a, b, valueobjects.LinkTypeWarmup, 1)

	for _, lt := range []string{"Warmup", "Cooldown"} {
		t.Run(lt, func(t *testing.T) {
			_, err := f.service.CreateLink(context.Background(), b, CreateLinkRequest{TargetExerciseID: a, LinkType: lt, DisplayOrder: 1})
			assertDomainError(t, err, errors.ErrCircularReference)
		})
	}
	assert.Equal(t, 1, f.links.Count())
}

func TestCreateLink_TransitiveCycle(t *testing.T) {
	f := newFixture(t)
	roles := []string{valueobjects.ExerciseTypeWorkout, valueobjects.ExerciseTypeWarmup, valueobjects.ExerciseTypeCooldown}
	a, b, c := f.exercise(roles...), f.exercise(roles...), f.exercise(roles...)

	f.create(t, a, b, valueobjects.LinkTypeWarmup, 0)
	f.create(t, b, c, valueobjects.LinkTypeCooldown, 0)

	_, err := f.service.CreateLink(context.Background(), c, CreateLinkRequest{TargetExerciseID: a, LinkType: "Warmup"})
	assertDomainError(t, err, errors.ErrCircularReference)

	// a -> c keeps the graph acyclic
	f.create(t, a, c, valueobjects.LinkTypeWarmup, 1)
}

func TestCreateLink_CardinalityBoundary(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)

	var first *ExerciseLinkDTO
	for i := 0; i < 10; i++ {
		dto := f.create(t, a, f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, i)
		if first == nil {
			first = dto
		}
	}

	_, err := f.service.CreateLink(context.Background(), a, CreateLinkRequest{
		TargetExerciseID: f.exercise(valueobjects.ExerciseTypeWarmup),
		LinkType:         "Warmup",
	})
	assertDomainError(t, err, errors.ErrCardinalityExceeded)

	// Another type has its own budget
	f.create(t, a, f.exercise(valueobjects.ExerciseTypeCooldown), valueobjects.LinkTypeCooldown, 0)

	deleted, err := f.service.DeleteLink(context.Background(), a, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	f.create(t, a, f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, 11)
	_, err = f.service.CreateLink(context.Background(), a, CreateLinkRequest{
		TargetExerciseID: f.exercise(valueobjects.ExerciseTypeWarmup),
		LinkType:         "Warmup",
	})
	assertDomainError(t, err, errors.ErrCardinalityExceeded)
}

func TestCreateLink_Duplicate(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	b := f.exercise(valueobjects.ExerciseTypeWarmup, valueobjects.ExerciseTypeCooldown)
	f.create(t, a, b, valueobjects.LinkTypeWarmup, 0)

	_, err := f.service.CreateLink(context.Background(), a, CreateLinkRequest{TargetExerciseID: b, LinkType: "Warmup", DisplayOrder: 3})
	assertDomainError(t, err, errors.ErrDuplicateLink)

	// Same pair with another type is a different link
	f.create(t, a, b, valueobjects.LinkTypeCooldown, 0)
}

func TestCreateLink_RestExclusivity(t *testing.T) {
	f := newFixture(t)
	rest := f.exercise(valueobjects.ExerciseTypeRest)
	workout := f.exercise(valueobjects.ExerciseTypeWorkout)
	warmup := f.exercise(valueobjects.ExerciseTypeWarmup)

	_, err := f.service.CreateLink(context.Background(), rest, CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Warmup", DisplayOrder: 1})
	assertDomainError(t, err, errors.ErrRestExclusivity)

	_, err = f.service.CreateLink(context.Background(), workout, CreateLinkRequest{TargetExerciseID: rest, LinkType: "Warmup", DisplayOrder: 1})
	assertDomainError(t, err, errors.ErrRestExclusivity)
}

func TestCreateLink_Rejections(t *testing.T) {
	f := newFixture(t)
	workout := f.exercise(valueobjects.ExerciseTypeWorkout)
	warmup := f.exercise(valueobjects.ExerciseTypeWarmup)
	inactive := valueobjects.NewExerciseID()
	f.catalog.Put(entities.Exercise{ID: inactive, IsActive: false, Types: []string{valueobjects.ExerciseTypeWarmup}})

	tests := []struct {
		name    string
		source  string
		req     CreateLinkRequest
		wantErr *errors.DomainError
	}{
		{"malformed source", "exercise-123", CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Warmup"}, errors.ErrInvalidFormat},
		{"malformed target", workout, CreateLinkRequest{TargetExerciseID: "nope", LinkType: "Warmup"}, errors.ErrInvalidFormat},
		{"unknown link type", workout, CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Stretch"}, errors.ErrInvalidFormat},
		{"negative order", workout, CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Warmup", DisplayOrder: -1}, errors.ErrInvalidDisplayOrder},
		{"unknown source", valueobjects.NewExerciseID().String(), CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Warmup"}, errors.ErrSourceNotFoundOrInactive},
		{"source not workout", warmup, CreateLinkRequest{TargetExerciseID: workout, LinkType: "Warmup"}, errors.ErrSourceTypeMismatch},
		{"inactive target", workout, CreateLinkRequest{TargetExerciseID: inactive.String(), LinkType: "Warmup"}, errors.ErrTargetNotFoundOrInactive},
		{"target tag mismatch", workout, CreateLinkRequest{TargetExerciseID: warmup, LinkType: "Cooldown"}, errors.ErrTargetTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CreateLink(context.Background(), tt.source, tt.req)
			assertDomainError(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 0, f.links.Count())
	assert.Empty(t, f.publisher.Events())
}

func TestCreateLink_LockContention(t *testing.T) {
	locker := new(mockLocker)
	links := memory.NewInMemoryLinkStore()
	service := NewExerciseLinkService(links, memory.NewInMemoryExerciseCatalog(), locker, nil, nil, config.DefaultDomainConfig(), zap.NewNop())
	source := valueobjects.NewExerciseID()

	locker.On("Acquire", mock.Anything, "exercise-links#"+source.String(), mock.Anything, mock.Anything).
		Return(nil, ports.ErrLockNotAcquired)

	_, err := service.CreateLink(context.Background(), source.String(), CreateLinkRequest{
		TargetExerciseID: valueobjects.NewExerciseID().String(),
		LinkType:         "Warmup",
	})

	assertDomainError(t, err, errors.ErrConcurrentModification)
	domainErr, ok := errors.AsDomainError(err)
	require.True(t, ok)
	assert.True(t, domainErr.Retryable)
	locker.AssertExpectations(t)
}

func TestCreateLink_ConcurrentRequestsRespectCardinality(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	targets := make([]string, 25)
	for i := range targets {
		targets[i] = f.exercise(valueobjects.ExerciseTypeWarmup)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i, target := range targets {
		wg.Add(1)
		go func(order int, target string) {
			defer wg.Done()
			_, err := f.service.CreateLink(context.Background(), a, CreateLinkRequest{TargetExerciseID: target, LinkType: "Warmup", DisplayOrder: order})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, stderrors.Is(err, errors.ErrCardinalityExceeded), "unexpected error %v", err)
		}(i, target)
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, 10, f.links.Count())
}

func TestCreateLink_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := new(mockPublisher)
	catalog := memory.NewInMemoryExerciseCatalog()
	service := NewExerciseLinkService(memory.NewInMemoryLinkStore(), catalog, memory.NewMutexLocker(), publisher, nil, nil, zap.NewNop())
	a, b := valueobjects.NewExerciseID(), valueobjects.NewExerciseID()
	catalog.Put(entities.Exercise{ID: a, IsActive: true, Types: []string{valueobjects.ExerciseTypeWorkout}})
	catalog.Put(entities.Exercise{ID: b, IsActive: true, Types: []string{valueobjects.ExerciseTypeCooldown}})

	publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(fmt.Errorf("bus down"))

	dto, err := service.CreateLink(context.Background(), a.String(), CreateLinkRequest{TargetExerciseID: b.String(), LinkType: "cooldown"})

	require.NoError(t, err)
	assert.Equal(t, "Cooldown", dto.LinkType)
	publisher.AssertExpectations(t)
}

func TestCreateLink_RecordsMetrics(t *testing.T) {
	metrics := new(mockMetrics)
	service := NewExerciseLinkService(memory.NewInMemoryLinkStore(), memory.NewInMemoryExerciseCatalog(), memory.NewMutexLocker(), nil, metrics, nil, zap.NewNop())

	metrics.On("RecordOperation", mock.Anything, OpCreateLink, mock.Anything, mock.Anything).Once()
	metrics.On("RecordRejection", mock.Anything, "SOURCE_NOT_FOUND_OR_INACTIVE").Once()

	_, err := service.CreateLink(context.Background(), valueobjects.NewExerciseID().String(), CreateLinkRequest{
		TargetExerciseID: valueobjects.NewExerciseID().String(),
		LinkType:         "Warmup",
	})

	assertDomainError(t, err, errors.ErrSourceNotFoundOrInactive)
	metrics.AssertExpectations(t)
}

func TestGetLinks(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	w := f.exercise(valueobjects.ExerciseTypeWarmup)
	c := f.exercise(valueobjects.ExerciseTypeCooldown)
	f.create(t, a, w, valueobjects.LinkTypeWarmup, 2)
	f.create(t, a, c, valueobjects.LinkTypeCooldown, 1)

	resp, err := f.service.GetLinks(context.Background(), a, "", false)
	require.NoError(t, err)
	assert.Equal(t, a, resp.ExerciseID)
	require.Len(t, resp.Links, 2)
	assert.Equal(t, c, resp.Links[0].TargetExerciseID)
	assert.Nil(t, resp.Links[0].TargetExercise)

	resp, err = f.service.GetLinks(context.Background(), a, "warmup", true)
	require.NoError(t, err)
	require.Len(t, resp.Links, 1)
	require.NotNil(t, resp.Links[0].TargetExercise)
	assert.Equal(t, w, resp.Links[0].TargetExercise.ID.String())

	_, err = f.service.GetLinks(context.Background(), a, "Alternative", false)
	assertDomainError(t, err, errors.ErrInvalidFormat)

	resp, err = f.service.GetLinks(context.Background(), f.exercise(valueobjects.ExerciseTypeWorkout), "", false)
	require.NoError(t, err)
	assert.NotNil(t, resp.Links)
	assert.Empty(t, resp.Links)
}

func TestUpdateLink(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	created := f.create(t, a, f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, 1)

	updated, err := f.service.UpdateLink(context.Background(), a, created.ID, UpdateLinkRequest{DisplayOrder: 7, IsActive: false})

	require.NoError(t, err)
	assert.Equal(t, 7, updated.DisplayOrder)
	assert.False(t, updated.IsActive)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, created.TargetExerciseID, updated.TargetExerciseID)

	resp, err := f.service.GetLinks(context.Background(), a, "", false)
	require.NoError(t, err)
	assert.Empty(t, resp.Links, "inactive links are hidden")

	published := f.publisher.Events()
	assert.Equal(t, events.EventTypeLinkUpdated, published[len(published)-1].GetEventType())
}

func TestUpdateLink_Errors(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	other := f.exercise(valueobjects.ExerciseTypeWorkout)
	created := f.create(t, a, f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, 1)

	_, err := f.service.UpdateLink(context.Background(), a, valueobjects.NewExerciseLinkID().String(), UpdateLinkRequest{})
	assertDomainError(t, err, errors.ErrLinkNotFound)

	_, err = f.service.UpdateLink(context.Background(), other, created.ID, UpdateLinkRequest{DisplayOrder: 2, IsActive: true})
	assertDomainError(t, err, errors.ErrOwnershipMismatch)

	_, err = f.service.UpdateLink(context.Background(), a, "link-1", UpdateLinkRequest{})
	assertDomainError(t, err, errors.ErrInvalidFormat)

	_, err = f.service.UpdateLink(context.Background(), a, created.ID, UpdateLinkRequest{DisplayOrder: -2, IsActive: true})
	assertDomainError(t, err, errors.ErrInvalidDisplayOrder)
}

func TestUpdateLink_ReactivationRevalidates(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	b := f.exercise(valueobjects.ExerciseTypeWarmup)
	first := f.create(t, a, b, valueobjects.LinkTypeWarmup, 1)

	_, err := f.service.UpdateLink(context.Background(), a, first.ID, UpdateLinkRequest{DisplayOrder: 1, IsActive: false})
	require.NoError(t, err)

	// A fresh link takes the freed slot, so reactivating the old one would duplicate it
	f.create(t, a, b, valueobjects.LinkTypeWarmup, 2)

	_, err = f.service.UpdateLink(context.Background(), a, first.ID, UpdateLinkRequest{DisplayOrder: 1, IsActive: true})
	assertDomainError(t, err, errors.ErrDuplicateLink)
}

func TestDeleteLink(t *testing.T) {
	f := newFixture(t)
	a := f.exercise(valueobjects.ExerciseTypeWorkout)
	other := f.exercise(valueobjects.ExerciseTypeWorkout)
	created := f.create(t, a, f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, 1)

	t.Run("unknown link returns false", func(t *testing.T) {
		deleted, err := f.service.DeleteLink(context.Background(), a, valueobjects.NewExerciseLinkID().String())
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("foreign exercise is rejected", func(t *testing.T) {
		deleted, err := f.service.DeleteLink(context.Background(), other, created.ID)
		assertDomainError(t, err, errors.ErrOwnershipMismatch)
		assert.False(t, deleted)
		assert.Equal(t, 1, f.links.Count())
	})

	t.Run("owner deletes", func(t *testing.T) {
		deleted, err := f.service.DeleteLink(context.Background(), a, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, 0, f.links.Count())

		published := f.publisher.Events()
		assert.Equal(t, events.EventTypeLinkDeleted, published[len(published)-1].GetEventType())
	})

	t.Run("second delete returns false", func(t *testing.T) {
		deleted, err := f.service.DeleteLink(context.Background(), a, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestGetSuggestedLinks(t *testing.T) {
	f := newFixture(t)
	popular := f.exercise(valueobjects.ExerciseTypeWarmup)
	for i := 0; i < 3; i++ {
		f.create(t, f.exercise(valueobjects.ExerciseTypeWorkout), popular, valueobjects.LinkTypeWarmup, 0)
	}
	f.create(t, f.exercise(valueobjects.ExerciseTypeWorkout), f.exercise(valueobjects.ExerciseTypeWarmup), valueobjects.LinkTypeWarmup, 0)
	caller := f.exercise(valueobjects.ExerciseTypeWorkout)

	suggested, err := f.service.GetSuggestedLinks(context.Background(), caller, 0)
	require.NoError(t, err)
	require.Len(t, suggested, 2)
	assert.Equal(t, popular, suggested[0].TargetExerciseID)

	suggested, err = f.service.GetSuggestedLinks(context.Background(), caller, 1)
	require.NoError(t, err)
	assert.Len(t, suggested, 1)

	for _, count := range []int{-1, 21} {
		_, err = f.service.GetSuggestedLinks(context.Background(), caller, count)
		assertDomainError(t, err, errors.ErrInvalidSuggestionCount)
	}

	_, err = f.service.GetSuggestedLinks(context.Background(), "exercise-x", 5)
	assertDomainError(t, err, errors.ErrInvalidFormat)
}

package validators

import (
	"context"
	stderrors "errors"
	"testing"

	"exerciselinks/domain/core/entities"
	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExerciseReader struct {
	mock.Mock
}

func (m *mockExerciseReader) GetByID(ctx context.Context, id valueobjects.ExerciseID) (*entities.Exercise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Exercise), args.Error(1)
}

type mockLinkReader struct {
	mock.Mock
}

func (m *mockLinkReader) ExistsLink(ctx context.Context, source, target valueobjects.ExerciseID, linkType valueobjects.LinkType) (bool, error) {
	args := m.Called(ctx, source, target, linkType)
	return args.Bool(0), args.Error(1)
}

func (m *mockLinkReader) GetOutgoing(ctx context.Context, source valueobjects.ExerciseID, linkType *valueobjects.LinkType) ([]*entities.ExerciseLink, error) {
	args := m.Called(ctx, source, linkType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ExerciseLink), args.Error(1)
}

type mockCycleChecker struct {
	mock.Mock
}

func (m *mockCycleChecker) WouldCreateCycle(ctx context.Context, source, target valueobjects.ExerciseID) (bool, error) {
	args := m.Called(ctx, source, target)
	return args.Bool(0), args.Error(1)
}

type fixture struct {
	exercises *mockExerciseReader
	links     *mockLinkReader
	cycles    *mockCycleChecker
	validator *LinkValidator
	source    *entities.Exercise
	target    *entities.Exercise
}

func newFixture() *fixture {
	f := &fixture{
		exercises: new(mockExerciseReader),
		links:     new(mockLinkReader),
		cycles:    new(mockCycleChecker),
		source: &entities.Exercise{
			ID: valueobjects.NewExerciseID(), Name: "Squat", IsActive: true,
			Types: []string{valueobjects.ExerciseTypeWorkout},
		},
		target: &entities.Exercise{
			ID: valueobjects.NewExerciseID(), Name: "Leg Swing", IsActive: true,
			Types: []string{valueobjects.ExerciseTypeWarmup},
		},
	}
	f.validator = NewLinkValidator(f.exercises, f.links, f.cycles, 10)
	return f
}

func (f *fixture) validate() (*ValidatedLink, error) {
	return f.validator.Validate(context.Background(), f.source.ID.String(), f.target.ID.String(), "Warmup")
}

func (f *fixture) expectEndpoints() {
	f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
	f.exercises.On("GetByID", mock.Anything, f.target.ID).Return(f.target, nil)
}

func existingLinks(n int) []*entities.ExerciseLink {
	out := make([]*entities.ExerciseLink, n)
	for i := range out {
		link, _ := entities.NewExerciseLink(valueobjects.NewExerciseID(), valueobjects.NewExerciseID(), valueobjects.LinkTypeWarmup, i)
		out[i] = link
	}
	return out
}

func TestLinkValidator_Validate_Success(t *testing.T) {
	// Arrange
	f := newFixture()
	f.expectEndpoints()
	f.links.On("ExistsLink", mock.Anything, f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup).Return(false, nil)
	f.cycles.On("WouldCreateCycle", mock.Anything, f.source.ID, f.target.ID).Return(false, nil)
	f.links.On("GetOutgoing", mock.Anything, f.source.ID, mock.Anything).Return(existingLinks(9), nil)

	// Act
	result, err := f.validate()

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Source.Equals(f.source.ID))
	assert.True(t, result.Target.Equals(f.target.ID))
	assert.Equal(t, valueobjects.LinkTypeWarmup, result.LinkType)
	f.exercises.AssertExpectations(t)
	f.links.AssertExpectations(t)
	f.cycles.AssertExpectations(t)
}

func TestLinkValidator_Validate_InvalidFormat(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name     string
		source   string
		target   string
		linkType string
	}{
		{name: "bad source", source: "squat", target: f.target.ID.String(), linkType: "Warmup"},
		{name: "bad target", source: f.source.ID.String(), target: "exercise-123", linkType: "Warmup"},
		{name: "bad link type", source: f.source.ID.String(), target: f.target.ID.String(), linkType: "Stretch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.validator.Validate(context.Background(), tt.source, tt.target, tt.linkType)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidFormat))
		})
	}
	f.exercises.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestLinkValidator_Validate_SelfLink(t *testing.T) {
	f := newFixture()

	_, err := f.validator.Validate(context.Background(), f.source.ID.String(), f.source.ID.String(), "Warmup")

	assert.True(t, stderrors.Is(err, errors.ErrSelfLink))
	f.exercises.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestLinkValidator_Validate_EndpointRules(t *testing.T) {
	tests := []struct {
		name    string
		arrange func(f *fixture)
		want    *errors.DomainError
	}{
		{
			name: "source missing",
			arrange: func(f *fixture) {
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(nil, nil)
			},
			want: errors.ErrSourceNotFoundOrInactive,
		},
		{
			name: "source inactive",
			arrange: func(f *fixture) {
				f.source.IsActive = false
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
			},
			want: errors.ErrSourceNotFoundOrInactive,
		},
		{
			name: "source not workout",
			arrange: func(f *fixture) {
				f.source.Types = []string{valueobjects.ExerciseTypeWarmup}
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
			},
			want: errors.ErrSourceTypeMismatch,
		},
		{
			name: "source only rest",
			arrange: func(f *fixture) {
				f.source.Types = []string{valueobjects.ExerciseTypeRest}
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
			},
			want: errors.ErrRestExclusivity,
		},
		{
			name: "source workout and rest",
			arrange: func(f *fixture) {
				f.source.Types = []string{valueobjects.ExerciseTypeWorkout, valueobjects.ExerciseTypeRest}
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
			},
			want: errors.ErrRestExclusivity,
		},
		{
			name: "target missing",
			arrange: func(f *fixture) {
				f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(f.source, nil)
				f.exercises.On("GetByID", mock.Anything, f.target.ID).Return(nil, nil)
			},
			want: errors.ErrTargetNotFoundOrInactive,
		},
		{
			name: "target wrong type",
			arrange: func(f *fixture) {
				f.target.Types = []string{valueobjects.ExerciseTypeCooldown}
				f.expectEndpoints()
			},
			want: errors.ErrTargetTypeMismatch,
		},
		{
			name: "target only rest",
			arrange: func(f *fixture) {
				f.target.Types = []string{valueobjects.ExerciseTypeRest}
				f.expectEndpoints()
			},
			want: errors.ErrRestExclusivity,
		},
		{
			name: "target rest",
			arrange: func(f *fixture) {
				f.target.Types = []string{valueobjects.ExerciseTypeWarmup, valueobjects.ExerciseTypeRest}
				f.expectEndpoints()
			},
			want: errors.ErrRestExclusivity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.arrange(f)

			_, err := f.validate()

			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want), "got %v", err)
			f.links.AssertNotCalled(t, "ExistsLink", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestLinkValidator_Validate_Duplicate(t *testing.T) {
	f := newFixture()
	f.expectEndpoints()
	f.links.On("ExistsLink", mock.Anything, f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup).Return(true, nil)

	_, err := f.validate()

	assert.True(t, stderrors.Is(err, errors.ErrDuplicateLink))
	f.cycles.AssertNotCalled(t, "WouldCreateCycle", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkValidator_Validate_CircularReference(t *testing.T) {
	f := newFixture()
	f.expectEndpoints()
	f.links.On("ExistsLink", mock.Anything, f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup).Return(false, nil)
	f.cycles.On("WouldCreateCycle", mock.Anything, f.source.ID, f.target.ID).Return(true, nil)

	_, err := f.validate()

	assert.True(t, stderrors.Is(err, errors.ErrCircularReference))
	f.links.AssertNotCalled(t, "GetOutgoing", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkValidator_Validate_CardinalityExceeded(t *testing.T) {
	f := newFixture()
	f.expectEndpoints()
	f.links.On("ExistsLink", mock.Anything, f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup).Return(false, nil)
	f.cycles.On("WouldCreateCycle", mock.Anything, f.source.ID, f.target.ID).Return(false, nil)
	f.links.On("GetOutgoing", mock.Anything, f.source.ID, mock.MatchedBy(func(lt *valueobjects.LinkType) bool {
		return lt != nil && *lt == valueobjects.LinkTypeWarmup
	})).Return(existingLinks(10), nil)

	_, err := f.validate()

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCardinalityExceeded))
	domainErr, ok := errors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 10, domainErr.Details["limit"])
}

func TestLinkValidator_Validate_StoreFailure(t *testing.T) {
	f := newFixture()
	boom := stderrors.New("connection reset")
	f.exercises.On("GetByID", mock.Anything, f.source.ID).Return(nil, boom)

	_, err := f.validate()

	assert.ErrorIs(t, err, boom)
	_, isDomain := errors.AsDomainError(err)
	assert.False(t, isDomain)
}

func TestLinkValidator_ValidateReactivation(t *testing.T) {
	f := newFixture()
	link, err := entities.NewExerciseLink(f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup, 0)
	require.NoError(t, err)
	f.links.On("ExistsLink", mock.Anything, f.source.ID, f.target.ID, valueobjects.LinkTypeWarmup).Return(false, nil)
	f.cycles.On("WouldCreateCycle", mock.Anything, f.source.ID, f.target.ID).Return(false, nil)
	f.links.On("GetOutgoing", mock.Anything, f.source.ID, mock.Anything).Return(existingLinks(10), nil)

	err = f.validator.ValidateReactivation(context.Background(), link)

	assert.True(t, stderrors.Is(err, errors.ErrCardinalityExceeded))
	f.exercises.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

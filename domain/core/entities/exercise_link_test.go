package entities

import (
	stderrors "errors"
	"testing"
	"time"

	"exerciselinks/domain/core/valueobjects"
	"exerciselinks/domain/events"
	pkgerrors "exerciselinks/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExerciseLink(t *testing.T) {
	source := valueobjects.NewExerciseID()
	target := valueobjects.NewExerciseID()

	tests := []struct {
		name         string
		source       valueobjects.ExerciseID
		target       valueobjects.ExerciseID
		linkType     valueobjects.LinkType
		displayOrder int
		wantErr      *pkgerrors.DomainError
	}{
		{name: "valid warmup link", source: source, target: target, linkType: valueobjects.LinkTypeWarmup, displayOrder: 1},
		{name: "zero display order", source: source, target: target, linkType: valueobjects.LinkTypeCooldown},
		{name: "self link", source: source, target: source, linkType: valueobjects.LinkTypeWarmup, wantErr: pkgerrors.ErrSelfLink},
		{name: "negative order", source: source, target: target, linkType: valueobjects.LinkTypeWarmup, displayOrder: -1, wantErr: pkgerrors.ErrInvalidDisplayOrder},
		{name: "unknown type", source: source, target: target, linkType: valueobjects.LinkType("Alternative"), wantErr: pkgerrors.ErrInvalidFormat},
		{name: "missing source", target: target, linkType: valueobjects.LinkTypeWarmup, wantErr: pkgerrors.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := NewExerciseLink(tt.source, tt.target, tt.linkType, tt.displayOrder)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, tt.wantErr))
				assert.Nil(t, link)
				return
			}

			require.NoError(t, err)
			assert.False(t, link.ID().IsZero())
			assert.True(t, link.IsActive())
			assert.Equal(t, tt.displayOrder, link.DisplayOrder())
			assert.Equal(t, link.CreatedAt(), link.UpdatedAt())
			require.Len(t, link.GetUncommittedEvents(), 1)
			assert.Equal(t, events.EventTypeLinkCreated, link.GetUncommittedEvents()[0].GetEventType())
		})
	}
}

func TestExerciseLink_Update(t *testing.T) {
	created := time.Now().Add(-time.Hour).UTC()
	link := ReconstructExerciseLink(
		valueobjects.NewExerciseLinkID(),
		valueobjects.NewExerciseID(),
		valueobjects.NewExerciseID(),
		valueobjects.LinkTypeWarmup,
		1, true, created, created,
	)

	err := link.Update(4, false)

	require.NoError(t, err)
	assert.Equal(t, 4, link.DisplayOrder())
	assert.False(t, link.IsActive())
	assert.Equal(t, created, link.CreatedAt())
	assert.True(t, link.UpdatedAt().After(created))

	require.Len(t, link.GetUncommittedEvents(), 1)
	updated, ok := link.GetUncommittedEvents()[0].(events.LinkUpdated)
	require.True(t, ok)
	assert.Equal(t, 1, updated.OldDisplayOrder)
	assert.True(t, updated.WasActive)

	link.MarkEventsAsCommitted()
	assert.Empty(t, link.GetUncommittedEvents())
}

func TestExerciseLink_UpdateRejectsNegativeOrder(t *testing.T) {
	link, err := NewExerciseLink(valueobjects.NewExerciseID(), valueobjects.NewExerciseID(), valueobjects.LinkTypeWarmup, 2)
	require.NoError(t, err)

	err = link.Update(-3, true)

	assert.True(t, stderrors.Is(err, pkgerrors.ErrInvalidDisplayOrder))
	assert.Equal(t, 2, link.DisplayOrder())
}

func TestExerciseLink_CopyIsDetached(t *testing.T) {
	link, err := NewExerciseLink(valueobjects.NewExerciseID(), valueobjects.NewExerciseID(), valueobjects.LinkTypeCooldown, 0)
	require.NoError(t, err)

	copied := link.Copy()
	require.NoError(t, copied.Update(9, false))

	assert.Equal(t, 0, link.DisplayOrder())
	assert.True(t, link.IsActive())
	assert.True(t, copied.ID().Equals(link.ID()))
}

func TestExercise_HasType(t *testing.T) {
	exercise := &Exercise{Types: []string{valueobjects.ExerciseTypeWorkout, valueobjects.ExerciseTypeRest}}

	assert.True(t, exercise.HasType(valueobjects.ExerciseTypeWorkout))
	assert.False(t, exercise.HasType(valueobjects.ExerciseTypeWarmup))
	assert.True(t, exercise.IsRest())
}

package services

import (
	"time"

	"exerciselinks/domain/core/entities"
)

// CreateLinkRequest is the input of CreateLink
type CreateLinkRequest struct {
	TargetExerciseID string `json:"targetExerciseId" validate:"required"`
	LinkType         string `json:"linkType" validate:"required"`
	DisplayOrder     int    `json:"displayOrder" validate:"gte=0"`
}

// UpdateLinkRequest is the input of UpdateLink
type UpdateLinkRequest struct {
	DisplayOrder int  `json:"displayOrder" validate:"gte=0"`
	IsActive     bool `json:"isActive"`
}

// ExerciseLinkDTO is the outward representation of a link
type ExerciseLinkDTO struct {
	ID               string             `json:"id"`
	SourceExerciseID string             `json:"sourceExerciseId"`
	TargetExerciseID string             `json:"targetExerciseId"`
	TargetExercise   *entities.Exercise `json:"targetExercise,omitempty"`
	LinkType         string             `json:"linkType"`
	DisplayOrder     int                `json:"displayOrder"`
	IsActive         bool               `json:"isActive"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// LinksResponse is the result of GetLinks
type LinksResponse struct {
	ExerciseID string             `json:"exerciseId"`
	Links      []*ExerciseLinkDTO `json:"links"`
}

func toDTO(link *entities.ExerciseLink) *ExerciseLinkDTO {
	return &ExerciseLinkDTO{
		ID:               link.ID().String(),
		SourceExerciseID: link.SourceExerciseID().String(),
		TargetExerciseID: link.TargetExerciseID().String(),
		LinkType:         link.LinkType().String(),
		DisplayOrder:     link.DisplayOrder(),
		IsActive:         link.IsActive(),
		CreatedAt:        link.CreatedAt(),
		UpdatedAt:        link.UpdatedAt(),
	}
}

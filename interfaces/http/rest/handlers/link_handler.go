package handlers

import (
	"context"
	"net/http"
	"strconv"

	"exerciselinks/application/services"
	"exerciselinks/pkg/common"
	apperrors "exerciselinks/pkg/errors"
	"exerciselinks/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// LinkService is the part of the application service the handlers call
type LinkService interface {
	CreateLink(ctx context.Context, sourceID string, req services.CreateLinkRequest) (*services.ExerciseLinkDTO, error)
	GetLinks(ctx context.Context, exerciseID, linkType string, includeDetail bool) (*services.LinksResponse, error)
	UpdateLink(ctx context.Context, exerciseID, linkID string, req services.UpdateLinkRequest) (*services.ExerciseLinkDTO, error)
	DeleteLink(ctx context.Context, exerciseID, linkID string) (bool, error)
	GetSuggestedLinks(ctx context.Context, exerciseID string, count int) ([]*services.ExerciseLinkDTO, error)
}

// Annotator attaches searchable key/value pairs to the current trace
type Annotator interface {
	AddAnnotation(ctx context.Context, key string, value string)
}

// LinkHandler handles exercise link HTTP requests
type LinkHandler struct {
	service   LinkService
	errors    *apperrors.ErrorHandler
	annotator Annotator
	logger    *zap.Logger
}

// NewLinkHandler creates a new link handler. annotator may be nil.
func NewLinkHandler(service LinkService, errHandler *apperrors.ErrorHandler, annotator Annotator, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service:   service,
		errors:    errHandler,
		annotator: annotator,
		logger:    logger,
	}
}

// CreateLink handles POST /api/exercises/{exerciseId}/links
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	exerciseID := h.exerciseID(r)

	var req services.CreateLinkRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	link, err := h.service.CreateLink(r.Context(), exerciseID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Exercise link created",
		zap.String("linkID", link.ID),
		zap.String("sourceID", link.SourceExerciseID),
		zap.String("targetID", link.TargetExerciseID),
		zap.String("linkType", link.LinkType),
	)
	common.RespondJSON(w, http.StatusCreated, link)
}

// GetLinks handles GET /api/exercises/{exerciseId}/links
func (h *LinkHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	exerciseID := h.exerciseID(r)
	query := r.URL.Query()

	includeDetail := false
	if raw := query.Get("includeExerciseDetails"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("includeExerciseDetails must be true or false"))
			return
		}
		includeDetail = parsed
	}

	resp, err := h.service.GetLinks(r.Context(), exerciseID, query.Get("linkType"), includeDetail)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondList(w, http.StatusOK, resp, len(resp.Links))
}

// GetSuggestedLinks handles GET /api/exercises/{exerciseId}/links/suggested
func (h *LinkHandler) GetSuggestedLinks(w http.ResponseWriter, r *http.Request) {
	exerciseID := h.exerciseID(r)

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.ErrInvalidSuggestionCount.Clone().WithDetail("count", raw))
			return
		}
		count = parsed
	}

	links, err := h.service.GetSuggestedLinks(r.Context(), exerciseID, count)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondList(w, http.StatusOK, links, len(links))
}

// UpdateLink handles PUT /api/exercises/{exerciseId}/links/{linkId}
func (h *LinkHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	exerciseID := h.exerciseID(r)
	linkID := h.linkID(r)

	var req services.UpdateLinkRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("Invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	link, err := h.service.UpdateLink(r.Context(), exerciseID, linkID, req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, link)
}

// DeleteLink handles DELETE /api/exercises/{exerciseId}/links/{linkId}
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	exerciseID := h.exerciseID(r)
	linkID := h.linkID(r)

	deleted, err := h.service.DeleteLink(r.Context(), exerciseID, linkID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !deleted {
		h.errors.Handle(w, r, apperrors.ErrLinkNotFound.Clone().WithDetail("linkId", linkID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *LinkHandler) exerciseID(r *http.Request) string {
	id := chi.URLParam(r, "exerciseId")
	h.annotate(r, "exerciseId", id)
	return id
}

func (h *LinkHandler) linkID(r *http.Request) string {
	id := chi.URLParam(r, "linkId")
	h.annotate(r, "linkId", id)
	return id
}

func (h *LinkHandler) annotate(r *http.Request, key, value string) {
	if h.annotator != nil && value != "" {
		h.annotator.AddAnnotation(r.Context(), key, value)
	}
}

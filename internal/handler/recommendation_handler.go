package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type recommender interface {
	Recommend(ctx context.Context, req dto.RecommendationRequest) (*dto.RecommendationResponse, error)
}

// RecommendationHandler serves room and teacher suggestions.
type RecommendationHandler struct {
	service recommender
}

// NewRecommendationHandler constructs a RecommendationHandler.
func NewRecommendationHandler(svc recommender) *RecommendationHandler {
	return &RecommendationHandler{service: svc}
}

// Recommend godoc
// @Summary Recommend rooms and teachers for a course
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body dto.RecommendationRequest true "Course request"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recommendations [post]
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req dto.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recommendation payload"))
		return
	}
	result, err := h.service.Recommend(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

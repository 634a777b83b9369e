package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type dashboardSource interface {
	Dashboard() dto.DashboardResponse
}

// PredictFunc estimates a student's outcome.
type PredictFunc func(dto.PredictionRequest) dto.PredictionResponse

// DashboardHandler serves student indicators and the success heuristic.
type DashboardHandler struct {
	students dashboardSource
	predict  PredictFunc
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(students dashboardSource, predict PredictFunc) *DashboardHandler {
	return &DashboardHandler{students: students, predict: predict}
}

// Dashboard godoc
// @Summary Student sample indicators
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.students.Dashboard(), nil)
}

// Predict godoc
// @Summary Estimate a student's average and success probability
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body dto.PredictionRequest true "Indicators"
// @Success 200 {object} response.Envelope
// @Router /predictions [post]
func (h *DashboardHandler) Predict(c *gin.Context) {
	var req dto.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid prediction payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.predict(req), nil)
}

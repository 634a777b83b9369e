package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type catalogReader interface {
	ListRooms() []models.Room
	ListTeachers() []models.Teacher
	Programs() []models.Program
	SubjectsFor(program string, level int) []string
	Version() string
}

// CatalogHandler exposes read-only reference data.
type CatalogHandler struct {
	catalog catalogReader
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog catalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Rooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/rooms [get]
func (h *CatalogHandler) Rooms(c *gin.Context) {
	rooms := h.catalog.ListRooms()
	response.JSON(c, http.StatusOK, rooms, map[string]interface{}{"total": len(rooms)})
}

// Teachers godoc
// @Summary List teachers with their hour budgets
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/teachers [get]
func (h *CatalogHandler) Teachers(c *gin.Context) {
	teachers := h.catalog.ListTeachers()
	response.JSON(c, http.StatusOK, teachers, map[string]interface{}{
		"total":           len(teachers),
		"catalog_version": h.catalog.Version(),
	})
}

// Programs godoc
// @Summary List curriculum programs and levels
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/programs [get]
func (h *CatalogHandler) Programs(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.catalog.Programs(), nil)
}

// Subjects godoc
// @Summary List subjects for a program level
// @Tags Catalog
// @Produce json
// @Param program path string true "Program"
// @Param level path int true "Level (1-5)"
// @Success 200 {object} response.Envelope
// @Router /catalog/programs/{program}/levels/{level}/subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 1 || level > 5 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "level must be between 1 and 5"))
		return
	}
	response.JSON(c, http.StatusOK, h.catalog.SubjectsFor(c.Param("program"), level), nil)
}

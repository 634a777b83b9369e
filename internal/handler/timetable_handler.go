package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type timetableScheduler interface {
	Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error)
	Timetable() dto.TimetableView
}

type timetableExporter interface {
	Export(ctx context.Context, format string) (*dto.ExportResponse, error)
	Open(token string) (*os.File, string, error)
}

// TimetableHandler exposes the weekly grid, scheduling and exports.
type TimetableHandler struct {
	scheduler timetableScheduler
	exporter  timetableExporter
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(scheduler timetableScheduler, exporter timetableExporter) *TimetableHandler {
	return &TimetableHandler{scheduler: scheduler, exporter: exporter}
}

// Timetable godoc
// @Summary Current weekly timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Timetable(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.scheduler.Timetable(), nil)
}

// Schedule godoc
// @Summary Schedule a course into a slot
// @Description Teacher and room default to catalog choices when omitted. Fails with SLOT_OCCUPIED, UNKNOWN_TEACHER, UNKNOWN_ROOM, INSUFFICIENT_TEACHER_HOURS or ROOM_CAPACITY_INSUFFICIENT.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetable/entries [post]
func (h *TimetableHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	req.Actor = actorFromContext(c)
	result, err := h.scheduler.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Export godoc
// @Summary Export the timetable as CSV or PDF
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export format"
// @Success 201 {object} response.Envelope
// @Router /timetable/exports [post]
func (h *TimetableHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an exported timetable via signed token
// @Tags Timetable
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 410 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.exporter.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		contentType = "text/csv; charset=utf-8"
	case ".pdf":
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

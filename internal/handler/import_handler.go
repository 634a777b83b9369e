package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/response"
)

type importer interface {
	Import(ctx context.Context, kind models.ImportKind, data []byte) (*models.ImportResult, error)
	Submit(ctx context.Context, kind models.ImportKind, fileName string, data []byte) (*models.ImportJob, error)
	Job(id string) (*models.ImportJob, error)
}

// ImportHandler accepts CSV uploads for teachers and students.
type ImportHandler struct {
	service  importer
	maxBytes int64
}

// NewImportHandler constructs an ImportHandler. maxBytes falls back to 5MB when
// not positive.
func NewImportHandler(svc importer, maxBytes int64) *ImportHandler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ImportHandler{service: svc, maxBytes: maxBytes}
}

// ImportTeachers godoc
// @Summary Import teachers from CSV
// @Description Upserts teachers by matricule. Rows without matricule or name are skipped.
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param async query bool false "Queue the import and return 202"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /imports/teachers [post]
func (h *ImportHandler) ImportTeachers(c *gin.Context) {
	h.handle(c, models.ImportTeachers)
}

// ImportStudents godoc
// @Summary Replace the student sample from CSV
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param async query bool false "Queue the import and return 202"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /imports/students [post]
func (h *ImportHandler) ImportStudents(c *gin.Context) {
	h.handle(c, models.ImportStudents)
}

// Job godoc
// @Summary Background import status
// @Tags Imports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Job(c *gin.Context) {
	job, err := h.service.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

func (h *ImportHandler) handle(c *gin.Context, kind models.ImportKind) {
	async := false
	if raw := c.Query("async"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "async must be a boolean"))
			return
		}
		async = parsed
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > h.maxBytes {
		response.Error(c, appErrors.ErrTooLarge.WithDetails("maxBytes", h.maxBytes))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}
	if int64(len(data)) > h.maxBytes {
		response.Error(c, appErrors.ErrTooLarge.WithDetails("maxBytes", h.maxBytes))
		return
	}

	if async {
		job, err := h.service.Submit(c.Request.Context(), kind, fileHeader.Filename, data)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, job)
		return
	}

	result, err := h.service.Import(c.Request.Context(), kind, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

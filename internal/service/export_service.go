package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/dto"
	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/export"
	"github.com/noah-isme/academic-planner-api/pkg/storage"
)

const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"

	exportSlotHeader = "Créneau"
	exportTitle      = "Emploi du temps hebdomadaire"
)

type timetableGrid interface {
	Grid() []models.Slot
}

type exportStorage interface {
	Save(name string, data []byte) error
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export links.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService renders the timetable grid, stores it and hands out signed links.
type ExportService struct {
	grid    timetableGrid
	storage exportStorage
	signer  *storage.SignedURLSigner
	csv     csvRenderer
	pdf     pdfRenderer
	cfg     ExportConfig
	logger  *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers use the pkg/export
// defaults.
func NewExportService(grid timetableGrid, store exportStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &ExportService{
		grid:    grid,
		storage: store,
		signer:  signer,
		csv:     csv,
		pdf:     pdf,
		cfg:     cfg,
		logger:  logger,
	}
}

// Export renders the current timetable in format and returns a download link.
func (s *ExportService) Export(_ context.Context, format string) (*dto.ExportResponse, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	dataset := TimetableDataset(s.grid.Grid())

	var (
		payload []byte
		err     error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, exportTitle)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	id := uuid.NewString()
	relPath := path.Join("timetable", fmt.Sprintf("emploi_du_temps_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), id[:8], format))
	if err := s.storage.Save(relPath, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	s.logger.Info("timetable exported", zap.String("export_id", id), zap.String("format", format), zap.Int("bytes", len(payload)))
	return &dto.ExportResponse{
		ID:          id,
		Format:      format,
		DownloadURL: fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// Open verifies token and opens the referenced file. The caller closes it.
func (s *ExportService) Open(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Wrap(err, appErrors.ErrExportExpired.Code, appErrors.ErrExportExpired.Status, "download link expired")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export not found")
	}
	return file, path.Base(relPath), nil
}

// Cleanup removes exports older than twice the link TTL.
func (s *ExportService) Cleanup() {
	removed, err := s.storage.CleanupOlderThan(2 * s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("exports cleaned up", zap.Int("files", len(removed)))
	}
}

// TimetableDataset lays the grid out with one row per period and one column
// per day.
func TimetableDataset(slots []models.Slot) export.Dataset {
	headers := []string{exportSlotHeader}
	for _, d := range models.Days {
		headers = append(headers, d.Label())
	}

	rows := make([]map[string]string, 0, len(models.Periods))
	index := make(map[models.Period]map[string]string, len(models.Periods))
	for _, p := range models.Periods {
		row := map[string]string{exportSlotHeader: p.Label()}
		index[p] = row
		rows = append(rows, row)
	}
	for _, slot := range slots {
		if slot.Entry == nil {
			continue
		}
		if row, ok := index[slot.Period]; ok {
			row[slot.Day.Label()] = formatExportCell(*slot.Entry)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatExportCell(e models.ScheduledEntry) string {
	return fmt.Sprintf("%s (%s)\n%s • %d\n%s • %s", e.Subject, e.SessionType, e.Program, e.Level, e.RoomName, e.TeacherName)
}

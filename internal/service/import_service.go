package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-planner-api/internal/models"
	appErrors "github.com/noah-isme/academic-planner-api/pkg/errors"
	"github.com/noah-isme/academic-planner-api/pkg/jobs"
	"github.com/noah-isme/academic-planner-api/pkg/tabular"
)

// Column aliases accepted by the adapters. The first alias that matches a
// header wins.
var (
	colTeacherMatricule = []string{"Matricule", "Matricule_enseignant"}
	colTeacherName      = []string{"Nom", "Nom_complet", "Name"}
	colTeacherPrograms  = []string{"Filières", "Filieres", "Departement", "Département"}
	colTeacherSubjects  = []string{"Matières", "Matieres", "Subjects"}
	colTeacherSpecialty = []string{"Spécialité", "Specialite", "Specialty"}
	colHoursPlanned     = []string{"Heures totales prévues", "Heures_totales", "Heures totales"}
	colHoursDone        = []string{"Heures déjà faites", "Heures_faites", "Heures faites"}
	colHoursRemaining   = []string{"Heures restantes", "Heures_restantes"}

	colStudentMatricule = []string{"matricule", "Matricule"}
	colStudentName      = []string{"nom", "Nom", "name"}
	colStudentProgram   = []string{"filiere", "filière", "major"}
	colStudentLevel     = []string{"niveau", "level"}
	colStudentAverage   = []string{"moyenne", "average"}
	colStudentPresence  = []string{"presence", "présence", "taux de présence", "attendance"}
	colStudentProjects  = []string{"projets", "nombre de projets", "projects"}
	colStudentDistance  = []string{"distance"}
	colStudentWorks     = []string{"travaille", "emploi", "job"}
	colStudentStatus    = []string{"statut", "status"}
	colStudentValidated = []string{"matieres_validees", "matières validées", "validated_subjects"}
	colStudentCredits   = []string{"credits", "crédits"}
)

const defaultSpecialty = "N/A"

type teacherUpserter interface {
	UpsertTeachers(recs []models.TeacherRecord) (created, updated int)
	FindTeacherByMatricule(matricule string) (models.Teacher, bool)
}

type studentReplacer interface {
	Replace(students []models.Student)
}

type fileArchive interface {
	Save(name string, data []byte) error
	Read(name string) ([]byte, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ImportService applies CSV uploads to the catalog and the student sample.
// Imports either apply every valid row or, when no row is valid, nothing.
type ImportService struct {
	catalog   teacherUpserter
	students  studentReplacer
	archive   fileArchive
	queue     jobDispatcher
	jobs      *importJobStore
	metrics   *MetricsService
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportService constructs an ImportService. Call AttachQueue before Submit.
func NewImportService(catalog teacherUpserter, students studentReplacer, archive fileArchive, metrics *MetricsService, publisher EventPublisher, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		catalog:   catalog,
		students:  students,
		archive:   archive,
		jobs:      newImportJobStore(),
		metrics:   metrics,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// AttachQueue wires the background queue used by Submit.
func (s *ImportService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// Import runs the adapter for kind synchronously.
func (s *ImportService) Import(ctx context.Context, kind models.ImportKind, data []byte) (*models.ImportResult, error) {
	switch kind {
	case models.ImportTeachers:
		return s.ImportTeachers(ctx, data)
	case models.ImportStudents:
		return s.ImportStudents(ctx, data)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
	}
}

// ImportTeachers upserts teachers by matricule.
func (s *ImportService) ImportTeachers(_ context.Context, data []byte) (*models.ImportResult, error) {
	table, err := parseUpload(data)
	if err != nil {
		return nil, s.record(models.ImportTeachers, nil, err)
	}

	result := &models.ImportResult{Kind: models.ImportTeachers, Rows: len(table.Rows)}
	if !table.Has(colHoursDone...) && table.Has(colHoursRemaining...) {
		result.Warnings = append(result.Warnings, "hours done inferred from planned minus remaining")
	}

	records := make([]models.TeacherRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec, issue := s.teacherFromRow(row)
		if issue != "" {
			result.Skipped = append(result.Skipped, models.RowIssue{Line: row.Line, Reason: issue})
			continue
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, s.record(models.ImportTeachers, result, appErrors.ErrImportNoValidRows.WithDetails("skipped", result.Skipped))
	}

	result.Created, result.Updated = s.catalog.UpsertTeachers(records)
	result.Applied = len(records)
	_ = s.record(models.ImportTeachers, result, nil)
	if s.publisher != nil {
		s.publisher.Publish(EventTeachersImported, result)
	}
	return result, nil
}

func (s *ImportService) teacherFromRow(row tabular.Row) (models.TeacherRecord, string) {
	matricule := row.Get(colTeacherMatricule...)
	if matricule == "" {
		return models.TeacherRecord{}, "missing matricule"
	}
	name := row.Get(colTeacherName...)
	if name == "" {
		return models.TeacherRecord{}, "missing name"
	}

	specialty := row.Get(colTeacherSpecialty...)
	if specialty == "" {
		specialty = defaultSpecialty
		if existing, ok := s.catalog.FindTeacherByMatricule(matricule); ok && existing.Specialty != "" {
			specialty = existing.Specialty
		}
	}

	planned := tabular.FloatOr(row.Get(colHoursPlanned...), 0)
	done, doneOK := tabular.Float(row.Get(colHoursDone...))
	if !doneOK {
		done = 0
		if remaining, ok := tabular.Float(row.Get(colHoursRemaining...)); ok {
			done = planned - remaining
			if done < 0 {
				done = 0
			}
		}
	}

	return models.TeacherRecord{
		Matricule:    matricule,
		Name:         name,
		Programs:     tabular.List(row.Get(colTeacherPrograms...)),
		Subjects:     tabular.List(row.Get(colTeacherSubjects...)),
		Specialty:    specialty,
		HoursPlanned: planned,
		HoursDone:    done,
	}, ""
}

// ImportStudents replaces the student sample with the file's valid rows.
func (s *ImportService) ImportStudents(_ context.Context, data []byte) (*models.ImportResult, error) {
	table, err := parseUpload(data)
	if err != nil {
		return nil, s.record(models.ImportStudents, nil, err)
	}

	result := &models.ImportResult{Kind: models.ImportStudents, Rows: len(table.Rows)}
	students := make([]models.Student, 0, len(table.Rows))
	downgraded := 0
	for _, row := range table.Rows {
		st := studentFromRow(row)
		if st.Matricule == "" {
			result.Skipped = append(result.Skipped, models.RowIssue{Line: row.Line, Reason: "missing matricule"})
			continue
		}
		if st.Status == models.StatusDeferred && strings.EqualFold(row.Get(colStudentStatus...), models.StatusAdmitted) {
			downgraded++
		}
		students = append(students, st)
	}
	if len(students) == 0 {
		return nil, s.record(models.ImportStudents, result, appErrors.ErrImportNoValidRows.WithDetails("skipped", result.Skipped))
	}
	if downgraded > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d status values downgraded to %s (average below %.0f)", downgraded, models.StatusDeferred, models.PassingAverage))
	}

	s.students.Replace(students)
	result.Applied = len(students)
	result.Created = len(students)
	_ = s.record(models.ImportStudents, result, nil)
	if s.publisher != nil {
		s.publisher.Publish(EventStudentsImported, result)
	}
	return result, nil
}

func studentFromRow(row tabular.Row) models.Student {
	st := models.Student{
		Matricule: row.Get(colStudentMatricule...),
		Name:      row.Get(colStudentName...),
		Program:   row.Get(colStudentProgram...),
		Distance:  row.Get(colStudentDistance...),
		Works:     tabular.Bool(row.Get(colStudentWorks...)),
		Status:    row.Get(colStudentStatus...),
	}
	if level, ok := tabular.Int(row.Get(colStudentLevel...)); ok {
		st.Level = level
	}
	if avg, ok := tabular.Float(row.Get(colStudentAverage...)); ok {
		st.Average = &avg
	}
	if presence, ok := tabular.Percent(row.Get(colStudentPresence...)); ok {
		st.Presence = &presence
	}
	st.Projects, _ = tabular.Int(row.Get(colStudentProjects...))
	st.ValidatedSubjects, _ = tabular.Int(row.Get(colStudentValidated...))
	st.Credits, _ = tabular.Int(row.Get(colStudentCredits...))

	if strings.EqualFold(st.Status, models.StatusAdmitted) {
		st.Status = models.StatusAdmitted
		if st.Average != nil && *st.Average < models.PassingAverage {
			st.Status = models.StatusDeferred
		}
	}
	return st
}

func parseUpload(data []byte) (*tabular.Table, error) {
	table, err := tabular.Parse(data)
	if err != nil {
		if errors.Is(err, tabular.ErrNoData) {
			return nil, appErrors.ErrImportEmpty
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable csv file")
	}
	return table, nil
}

func (s *ImportService) record(kind models.ImportKind, result *models.ImportResult, err error) error {
	applied, skipped := 0, 0
	if result != nil {
		applied, skipped = result.Applied, len(result.Skipped)
	}
	outcome := "applied"
	if err != nil {
		outcome = appErrors.FromError(err).Code
		s.logger.Warn("import rejected", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		s.logger.Info("import applied",
			zap.String("kind", string(kind)),
			zap.Int("applied", applied),
			zap.Int("skipped", skipped),
		)
	}
	s.metrics.RecordImport(string(kind), outcome, applied, skipped)
	return err
}

// Submit archives the upload and queues it for background processing.
func (s *ImportService) Submit(_ context.Context, kind models.ImportKind, fileName string, data []byte) (*models.ImportJob, error) {
	if kind != models.ImportTeachers && kind != models.ImportStudents {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown import kind %q", kind))
	}
	if s.queue == nil || s.archive == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background imports are not configured")
	}

	job := &models.ImportJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		FileName:  path.Base(fileName),
		Status:    models.ImportQueued,
		CreatedAt: s.now().UTC(),
	}
	if err := s.archive.Save(importArchiveName(job.ID), data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	s.jobs.put(job)
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: string(kind)}); err != nil {
		s.jobs.finish(job.ID, models.ImportFailed, nil, "failed to enqueue import", s.now())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue import")
	}
	snapshot, _ := s.jobs.get(job.ID)
	return snapshot, nil
}

// Job returns the state of a background import.
func (s *ImportService) Job(id string) (*models.ImportJob, error) {
	job, ok := s.jobs.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	return job, nil
}

// HandleJob is the queue handler for background imports. Domain rejections
// finish the job; storage failures are returned so the queue retries.
func (s *ImportService) HandleJob(ctx context.Context, job jobs.Job) error {
	s.jobs.setStatus(job.ID, models.ImportRunning)
	data, err := s.archive.Read(importArchiveName(job.ID))
	if err != nil {
		return err
	}
	result, err := s.Import(ctx, models.ImportKind(job.Kind), data)
	if err != nil {
		s.jobs.finish(job.ID, models.ImportFailed, nil, appErrors.FromError(err).Message, s.now())
		return nil
	}
	s.jobs.finish(job.ID, models.ImportCompleted, result, "", s.now())
	return nil
}

// GiveUp marks a job failed once the queue stops retrying it.
func (s *ImportService) GiveUp(job jobs.Job, err error) {
	s.jobs.finish(job.ID, models.ImportFailed, nil, err.Error(), s.now())
}

func importArchiveName(id string) string {
	return "uploads/" + id + ".csv"
}

type importJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.ImportJob
}

func newImportJobStore() *importJobStore {
	return &importJobStore{jobs: make(map[string]*models.ImportJob)}
}

func (s *importJobStore) put(job *models.ImportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *job
	s.jobs[job.ID] = &clone
}

func (s *importJobStore) get(id string) (*models.ImportJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	clone := *job
	return &clone, true
}

func (s *importJobStore) setStatus(id string, status models.ImportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.Status = status
	}
}

func (s *importJobStore) finish(id string, status models.ImportStatus, result *models.ImportResult, message string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	finished := at.UTC()
	job.Status = status
	job.Result = result
	job.Error = message
	job.FinishedAt = &finished
}

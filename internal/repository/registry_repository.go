package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// QueryObserver receives registry query timings.
type QueryObserver interface {
	ObserveRegistryQuery(label string, duration time.Duration)
}

// RegistryRepository reads rooms, teachers and curriculum from the institution's
// roster database. It never writes.
type RegistryRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewRegistryRepository constructs a RegistryRepository. observer may be nil.
func NewRegistryRepository(db *sqlx.DB, observer QueryObserver) *RegistryRepository {
	return &RegistryRepository{db: db, observer: observer}
}

func (r *RegistryRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveRegistryQuery(label, time.Since(start))
	}
}

const listRoomsQuery = `SELECT id, name, capacity FROM rooms WHERE capacity > 0 ORDER BY id`

func (r *RegistryRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	defer r.observe("list_rooms", time.Now())
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, listRoomsQuery); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

type registryTeacherRow struct {
	ID           int            `db:"id"`
	Matricule    string         `db:"matricule"`
	FullName     string         `db:"full_name"`
	Specialty    string         `db:"specialty"`
	HoursPlanned float64        `db:"hours_planned"`
	HoursDone    float64        `db:"hours_done"`
	Programs     pq.StringArray `db:"programs"`
	Subjects     pq.StringArray `db:"subjects"`
}

const listTeachersQuery = `SELECT t.id, t.matricule, t.full_name, COALESCE(t.specialty, '') AS specialty,
	t.hours_planned, t.hours_done,
	COALESCE(ARRAY(SELECT p.program FROM teacher_programs p WHERE p.teacher_id = t.id ORDER BY p.program), '{}') AS programs,
	COALESCE(ARRAY(SELECT s.subject FROM teacher_subjects s WHERE s.teacher_id = t.id ORDER BY s.subject), '{}') AS subjects
	FROM teachers t WHERE t.active ORDER BY t.id`

func (r *RegistryRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	defer r.observe("list_teachers", time.Now())
	var rows []registryTeacherRow
	if err := r.db.SelectContext(ctx, &rows, listTeachersQuery); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, models.Teacher{
			ID:           row.ID,
			Matricule:    row.Matricule,
			Name:         row.FullName,
			Programs:     []string(row.Programs),
			Subjects:     []string(row.Subjects),
			Specialty:    row.Specialty,
			HoursPlanned: row.HoursPlanned,
			HoursDone:    row.HoursDone,
		})
	}
	return teachers, nil
}

type curriculumRow struct {
	Program string         `db:"program"`
	Level   int            `db:"level"`
	Subject sql.NullString `db:"subject"`
}

const listCurriculumQuery = `SELECT program, level, subject FROM curriculum_subjects ORDER BY program, level, position`

// ListCurriculum returns program -> level -> subjects. A row with a NULL subject
// declares an empty level.
func (r *RegistryRepository) ListCurriculum(ctx context.Context) (models.Curriculum, error) {
	defer r.observe("list_curriculum", time.Now())
	var rows []curriculumRow
	if err := r.db.SelectContext(ctx, &rows, listCurriculumQuery); err != nil {
		return nil, fmt.Errorf("list curriculum: %w", err)
	}
	curriculum := models.Curriculum{}
	for _, row := range rows {
		levels, ok := curriculum[row.Program]
		if !ok {
			levels = map[int][]string{}
			curriculum[row.Program] = levels
		}
		if _, ok := levels[row.Level]; !ok {
			levels[row.Level] = []string{}
		}
		if row.Subject.Valid {
			levels[row.Level] = append(levels[row.Level], row.Subject.String)
		}
	}
	return curriculum, nil
}

// Ping checks registry connectivity for the readiness endpoint.
func (r *RegistryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
